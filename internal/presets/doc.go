// Package presets holds the external render command templates and turns
// per-event parameter tuples into command files.
//
// A Registry is an ordered list of (label, template) pairs seeded with
// built-in ffmpeg commands and optionally merged with a plain-text preset
// file. Templates use four positional placeholders: {0} source path,
// {1} destination path, {2} start time, {3} duration.
package presets
