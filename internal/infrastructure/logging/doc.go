// Package logging provides the structured logger used across the Noise
// client core.
//
// It is a thin wrapper over log/slog that applies the configured level,
// format, and output, and stamps every record with the service name and
// version. Domain packages do not import this package directly; they
// declare a small Logger interface that *logging.Logger satisfies, keeping
// the dependency arrow pointing outwards.
package logging
