// Package subtitles normalizes caption timing onto clip-relative
// coordinates so the frame renderer can test each frame timestamp against
// a sorted cue list.
package subtitles
