// Package ffmpeg wraps the ffmpeg binary for the fixed encoding operations
// this pipeline performs: segment extraction, audio window extraction, PCM
// decoding for waveform analysis, and frame-sequence muxing.
//
// Presets are deliberately fixed; callers choose inputs and time windows,
// never codecs. Every invocation takes a caller-bounded context since
// transcodes run for minutes against remote sources.
package ffmpeg
