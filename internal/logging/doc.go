// Package logging assembles the slog loggers used by eventbatch.
//
// It owns the console and JSON handlers, the log file tee, and the standard
// field keys. Context helpers tag log lines with the batch run ID and the
// source track so a run can be followed end to end in either format. NewNop
// gives tests and optional wiring a logger that never fails.
package logging
