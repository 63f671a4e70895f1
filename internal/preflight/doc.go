// Package preflight checks that a batch can run before anything on the
// timeline is touched.
//
// The CLI "check" command prints every result. "render" runs the same checks
// and stops on the first required failure, so a missing output directory or
// ffmpeg binary is reported once instead of once per event.
package preflight
