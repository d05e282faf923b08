package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Noise client core.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Datastore DatastoreConfig `yaml:"datastore"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DatastoreConfig contains settings for the per-device application data
// store.
type DatastoreConfig struct {
	// Driver selects the store implementation: "memory" or "sqlite".
	Driver string `yaml:"driver"`

	// Path is the SQLite database file. Ignored by the memory driver.
	Path string `yaml:"path"`

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NOISE_SECTION_KEY
// For example: NOISE_DATASTORE_PATH, NOISE_LOGGING_LEVEL
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, used when no config file is
// present.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Datastore: DatastoreConfig{
			Driver:      "memory",
			Path:        "./data/noise.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// NOISE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOISE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NOISE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("NOISE_DATASTORE_DRIVER"); v != "" {
		cfg.Datastore.Driver = v
	}
	if v := os.Getenv("NOISE_DATASTORE_PATH"); v != "" {
		cfg.Datastore.Path = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Datastore.Driver) {
	case "memory", "sqlite":
	default:
		errs = append(errs, "datastore.driver must be \"memory\" or \"sqlite\"")
	}
	if strings.ToLower(c.Datastore.Driver) == "sqlite" && c.Datastore.Path == "" {
		errs = append(errs, "datastore.path is required for the sqlite driver")
	}
	if c.Datastore.BusyTimeout < 0 {
		errs = append(errs, "datastore.busy_timeout must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
