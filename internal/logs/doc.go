// Package logs reads back the JSON log file written by the logging package.
//
// Tail decodes records with bounded memory, supports negative offsets for
// "last N records" reads, and filters by run ID and level so a single batch
// run can be inspected after the fact. Follow mode polls from the returned
// offset until the caller's context ends.
package logs
