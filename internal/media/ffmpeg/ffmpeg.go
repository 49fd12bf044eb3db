package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// WaveformSampleRate is the PCM sample rate used for waveform analysis.
const WaveformSampleRate = 44100

// Runner executes ffmpeg with the pipeline's fixed presets.
type Runner struct {
	binary string
}

// New constructs a Runner. An empty binary falls back to "ffmpeg" on PATH.
func New(binary string) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary}
}

// ExtractSegment re-encodes the [start, end] window of the input into an MP4
// at the output path. The input may be a local file or a URL; placing -ss
// before -i makes ffmpeg seek the source directly, which is what range
// extraction relies on for remote inputs.
func (r *Runner) ExtractSegment(ctx context.Context, input string, startSec, endSec int64, output string) error {
	if endSec <= startSec {
		return fmt.Errorf("extract segment: end %d must exceed start %d", endSec, startSec)
	}
	args := []string{
		"-y",
		"-ss", formatSeconds(startSec),
		"-i", input,
		"-t", formatSeconds(endSec - startSec),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		output,
	}
	return r.run(ctx, "extract segment", args)
}

// ExtractAudioWindow pulls the [start, start+duration] audio window out of
// the input, loudness-normalized and re-encoded to AAC, for muxing under the
// rendered frames.
func (r *Runner) ExtractAudioWindow(ctx context.Context, input string, startSec, durationSec int64, output string) error {
	if durationSec <= 0 {
		return fmt.Errorf("extract audio window: duration %d must be positive", durationSec)
	}
	args := []string{
		"-y",
		"-ss", formatSeconds(startSec),
		"-i", input,
		"-t", formatSeconds(durationSec),
		"-vn",
		"-af", "loudnorm=I=-16:TP=-1.5:LRA=11",
		"-c:a", "aac",
		"-b:a", "160k",
		output,
	}
	return r.run(ctx, "extract audio window", args)
}

// DecodePCM decodes the input's audio to raw mono signed 16-bit little-endian
// samples at WaveformSampleRate, the shape the waveform analyzer consumes.
func (r *Runner) DecodePCM(ctx context.Context, input, output string) error {
	args := []string{
		"-y",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(WaveformSampleRate),
		"-f", "s16le",
		output,
	}
	return r.run(ctx, "decode pcm", args)
}

// MuxFrames assembles the numbered frame images in frameDir with the audio
// track into the output MP4 at the given frame rate.
func (r *Runner) MuxFrames(ctx context.Context, frameDir, audioPath string, frameRate int, output string) error {
	if frameRate <= 0 {
		return fmt.Errorf("mux frames: frame rate %d must be positive", frameRate)
	}
	pattern := filepath.Join(frameDir, "frame-%06d.png")
	args := []string{
		"-y",
		"-framerate", strconv.Itoa(frameRate),
		"-i", pattern,
		"-i", audioPath,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "20",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"-shortest",
		"-movflags", "+faststart",
		output,
	}
	return r.run(ctx, "mux frames", args)
}

func (r *Runner) run(ctx context.Context, operation string, args []string) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", operation, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatSeconds(seconds int64) string {
	return strconv.FormatInt(seconds, 10)
}
