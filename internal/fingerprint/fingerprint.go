package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// separator joins the canonical fields before digesting. It is part of the
// wire contract; changing it invalidates every existing fingerprint.
const separator = "-"

// Clip computes the digest for a clip synthesis request. timeWindow carries
// either a "start:end" window or an opaque share token; callers building a
// window should use Window to get canonical rounding.
func Clip(feedID int64, episodeGUID, timeWindow string) string {
	return digest(
		strconv.FormatInt(feedID, 10),
		strings.TrimSpace(episodeGUID),
		strings.TrimSpace(timeWindow),
	)
}

// Edit computes the digest for a video edit request.
func Edit(sourceLocation string, startTime, endTime float64, useSubtitles bool) string {
	return digest(
		strings.TrimSpace(sourceLocation),
		formatSeconds(startTime),
		formatSeconds(endTime),
		strconv.FormatBool(useSubtitles),
	)
}

// Window renders a start/end pair as the canonical time-window field.
func Window(startTime, endTime float64) string {
	return formatSeconds(startTime) + ":" + formatSeconds(endTime)
}

// RoundSeconds normalizes a time to whole seconds, the granularity at which
// requests are deduplicated.
func RoundSeconds(seconds float64) int64 {
	return int64(math.Round(seconds))
}

func formatSeconds(seconds float64) string {
	return strconv.FormatInt(RoundSeconds(seconds), 10)
}

func digest(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, separator)))
	return hex.EncodeToString(sum[:])
}
