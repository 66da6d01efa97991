// Package logging builds the process-wide structured logger.
//
// snapvault logs exclusively through log/slog; this package turns the
// telemetry configuration into a handler (JSON for machine collection,
// text for interactive use) and installs it as the slog default, so
// every component's slog.Default().With("component", ...) logger picks
// it up.
package logging
