// Package pcm computes per-block RMS energy over raw mono s16le audio, the
// input the waveform renderer keys each bar's height from.
package pcm
