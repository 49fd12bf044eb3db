// Package editor is the state machine for the trim-existing-video path:
// validate fast, fingerprint, dedupe, then run the selected extraction
// strategy in the background and record a terminal outcome.
package editor
