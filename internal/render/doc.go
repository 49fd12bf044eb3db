// Package render produces the animated-waveform clip video. Each output
// frame is rasterized from an immutable FrameState by a pure function so a
// worker pool can render frames in parallel, then the frame sequence is
// muxed with the normalized audio track.
package render
