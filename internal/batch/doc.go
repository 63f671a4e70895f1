// Package batch renders timeline events to independent files and splices the
// results back onto parallel output tracks.
//
// For every selected event the runner computes clamped head/tail margins,
// isolates the event (muting siblings, zeroing fades, padding the window, and
// pulling neighbour boundaries up to the padded edges), asks the host to render
// the window, and restores every borrowed field before anything else happens.
// Restoration is tied to a Lease whose undo closure runs from a defer, so a
// failed or canceled render leaves the timeline exactly as it was found.
//
// Offline mode skips the host render and instead collects ffmpeg-style
// parameter tuples that the presets package turns into a command file; the
// spliced events then reference offline placeholder media.
//
// Validation problems surface as *ValidationError, host render failures as
// *RenderFailure. A canceled render is not an error: the run stops and the
// report is marked canceled.
package batch
