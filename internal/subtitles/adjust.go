package subtitles

import (
	"math"
	"sort"
	"strings"
)

// Subtitle is a single caption cue. Times are seconds; after AdjustToClip
// both lie within [0, clipDuration] and are relative to the clip start.
type Subtitle struct {
	Start float64
	End   float64
	Text  string
}

// AdjustToClip rewrites cue timing onto clip-relative coordinates.
//
// Invalid cues (non-finite, negative, or inverted times) are dropped first.
// Whether the remaining cues are source-absolute or already clip-relative is
// inferred: if the earliest cue starts after the clip could possibly have
// ended, the whole list is treated as absolute and shifted by -clipStart.
// That inference mis-fires for a relative cue list whose first cue starts
// very late in a long clip, but it matches how upstream transcript tooling
// has always labeled its output, so it stays. Cues are then clamped to
// [0, clipDuration] and cues left with no visible span are dropped. The
// result is sorted ascending by start.
func AdjustToClip(cues []Subtitle, clipStart, clipDuration float64) []Subtitle {
	if clipDuration <= 0 {
		return nil
	}

	valid := make([]Subtitle, 0, len(cues))
	for _, cue := range cues {
		if !validCue(cue) {
			continue
		}
		cue.Text = strings.TrimSpace(cue.Text)
		valid = append(valid, cue)
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	shift := 0.0
	if clipStart > 0 && valid[0].Start > clipDuration {
		shift = clipStart
	}

	adjusted := make([]Subtitle, 0, len(valid))
	for _, cue := range valid {
		start := cue.Start - shift
		end := cue.End - shift
		if end <= 0 || start >= clipDuration {
			continue
		}
		start = clamp(start, 0, clipDuration)
		end = clamp(end, 0, clipDuration)
		if end <= start {
			continue
		}
		adjusted = append(adjusted, Subtitle{Start: start, End: end, Text: cue.Text})
	}
	if len(adjusted) == 0 {
		return nil
	}
	return adjusted
}

// ActiveAt returns the first cue covering the given clip-relative timestamp.
// Cues must already be adjusted and sorted.
func ActiveAt(cues []Subtitle, at float64) (Subtitle, bool) {
	for _, cue := range cues {
		if cue.Start > at {
			break
		}
		if at <= cue.End {
			return cue, true
		}
	}
	return Subtitle{}, false
}

func validCue(cue Subtitle) bool {
	if math.IsNaN(cue.Start) || math.IsInf(cue.Start, 0) {
		return false
	}
	if math.IsNaN(cue.End) || math.IsInf(cue.End, 0) {
		return false
	}
	if cue.Start < 0 || cue.End < cue.Start {
		return false
	}
	return strings.TrimSpace(cue.Text) != ""
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
