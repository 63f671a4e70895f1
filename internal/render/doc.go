// Package render turns timeline render jobs into files.
//
// A Registry maps each configured template to an Engine (ffmpeg or drapto)
// and satisfies timeline.RenderBackend. Templates whose engine is unknown or
// unavailable are logged and left out of the catalog instead of failing the
// whole run. Engines write to a temporary file next to the destination and
// rename it into place, so a canceled or failed render never leaves a partial
// output behind.
package render
