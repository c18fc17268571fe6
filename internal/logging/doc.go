// Package logging builds slog loggers for the reclaim daemon and CLI.
//
// It provides console and JSON handlers, attribute helpers shared across
// packages, component loggers, and log-file retention pruning. Console output
// is a single line per record with flattened key=value attributes; JSON output
// is suitable for ingestion.
package logging
