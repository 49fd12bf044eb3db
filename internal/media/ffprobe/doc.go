// Package ffprobe wraps the ffprobe binary for media inspection.
//
// Probes gate fast-fail validation (does the source exist, is it
// audio/video, how long is it) and strategy selection (how large is it), so
// callers pass short-timeout contexts. Parsing is tolerant: ffprobe reports
// most numbers as strings and omits fields freely depending on container.
package ffprobe
