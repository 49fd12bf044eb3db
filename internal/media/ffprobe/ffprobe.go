package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path or URL and decodes the
// JSON response. Callers bound the context; probes used for validation
// should carry seconds-scale timeouts.
func Inspect(ctx context.Context, binary string, location string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return Result{}, errors.New("ffprobe inspect: empty location")
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams", "-of", "json",
		"--", location)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// HasPlayableStream reports whether the container holds at least one audio
// or video stream. Used to reject non-media sources before heavy work.
func (r Result) HasPlayableStream() bool {
	for _, stream := range r.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "audio", "video":
			return true
		}
	}
	return false
}

// HasVideoStream reports whether the container holds a video stream.
func (r Result) HasVideoStream() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return true
		}
	}
	return false
}

// DurationSeconds returns the container duration in seconds, falling back to
// the longest stream duration when the container omits it.
func (r Result) DurationSeconds() float64 {
	if duration := parseFloat(r.Format.Duration); duration > 0 {
		return duration
	}
	longest := 0.0
	for _, stream := range r.Streams {
		if d := parseFloat(stream.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

// SizeBytes returns the reported container size in bytes, or 0 when
// unavailable (common for network sources).
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
