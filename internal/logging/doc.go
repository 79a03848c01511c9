// Package logging builds slog loggers with console and JSON handlers.
// Diagnostics go to stderr (or a log file); user-facing output is written
// separately by internal/report.
package logging
