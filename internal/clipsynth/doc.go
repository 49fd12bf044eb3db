// Package clipsynth is the top-level state machine for the audio-to-video
// path: fingerprint the request, dedupe against the job store, and run the
// extract-render-upload pipeline as a single background attempt.
package clipsynth
