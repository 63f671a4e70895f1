// Package ffprobe wraps ffprobe JSON output for media imported into or
// produced by a batch.
//
// Inspect runs ffprobe and returns the parsed Result. Prober adapts Inspect
// to the timeline's MediaProber so rendered files can be measured before they
// are spliced back.
package ffprobe
