// Package timeline models the host editing environment that batch renders
// operate on: tracks, events, takes, media, fades, transitions, and regions.
//
// The batch engine only sees the Timeline, Renderer, and MediaSource
// interfaces. Project is the in-process host that implements all three; it
// delegates actual rendering to a RenderBackend and media decoding to a
// MediaProber so the CLI can plug in ffmpeg, drapto, and ffprobe while tests
// use fakes.
//
// Positions, lengths, and take offsets are Timecode values counted in frames
// at the project frame rate.
package timeline
