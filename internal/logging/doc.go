// Package logging wraps log/slog with clipforge conventions.
//
// It provides attribute helpers, standardized field keys, and logger
// construction from application config with console or JSON output. Console
// output is chosen automatically when stdout is a terminal.
package logging
