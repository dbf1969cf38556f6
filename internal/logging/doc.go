// Package logging assembles the structured slog loggers used by deltae.
//
// It owns the console and JSON handlers, level parsing, and optional
// duplication of every record into a JSON log file. Context helpers attach the
// run identifier so all records of one scoring run can be correlated, and the
// ProgressSampler keeps non-interactive progress logging sparse.
//
// Logs always go to stderr or a file. Stdout is reserved for scores.
package logging
