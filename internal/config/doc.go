// Package config loads, normalizes, and validates eventbatch configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the EVENTBATCH_OUTPUT_BASE environment fallback. The
// Config type replaces the interactive batch dialog: output base, render
// templates, margins, numbering, mode, and the external command preset are
// all settled here before a run starts.
package config
