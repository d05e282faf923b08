// Package config loads and validates the YAML configuration for the Noise
// client core.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// NOISE_* environment variable overrides. Validation runs last so every
// layer is checked together.
package config
