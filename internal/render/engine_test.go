package render

import (
	"math"
	"testing"

	"clipforge/internal/media/ffmpeg"
)

func TestFrameName(t *testing.T) {
	if got := frameName(0); got != "frame-000000.png" {
		t.Fatalf("unexpected frame name: %q", got)
	}
	if got := frameName(1234); got != "frame-001234.png" {
		t.Fatalf("unexpected frame name: %q", got)
	}
}

func TestFrameBarsWindowing(t *testing.T) {
	samples := make([]int16, 3*ffmpeg.WaveformSampleRate)
	// Loud second sandwiched between silence.
	for i := ffmpeg.WaveformSampleRate; i < 2*ffmpeg.WaveformSampleRate; i++ {
		samples[i] = math.MaxInt16 / 2
	}

	quiet := frameBars(samples, 0, 1)
	loud := frameBars(samples, 1, 1)
	if len(quiet) != barsPerFrame || len(loud) != barsPerFrame {
		t.Fatalf("expected %d bars, got %d and %d", barsPerFrame, len(quiet), len(loud))
	}
	if quiet[0] != 0 {
		t.Fatalf("silent window should read zero energy, got %v", quiet[0])
	}
	if loud[0] < 0.4 {
		t.Fatalf("loud window should read high energy, got %v", loud[0])
	}
}

func TestFrameBarsPastEndOfAudio(t *testing.T) {
	samples := make([]int16, ffmpeg.WaveformSampleRate/2)
	bars := frameBars(samples, 10, 1)
	if len(bars) != barsPerFrame {
		t.Fatalf("timestamps past the audio end must still yield bars, got %d", len(bars))
	}
}

func TestWaveformGainLiftsQuietClips(t *testing.T) {
	samples := make([]int16, ffmpeg.WaveformSampleRate)
	for i := range samples {
		samples[i] = math.MaxInt16 / 20
	}

	gain := waveformGain(samples)
	if gain <= 1 {
		t.Fatalf("quiet clip should be amplified, got gain %v", gain)
	}

	bars := frameBars(samples, 0, gain)
	if bars[0] < 0.9 {
		t.Fatalf("loudest block should reach near full height after gain, got %v", bars[0])
	}
	// Gain never pushes a bar past full scale.
	for i, bar := range frameBars(samples, 0, 50) {
		if bar > 1 {
			t.Fatalf("bar %d exceeds full scale: %v", i, bar)
		}
	}
}

func TestWaveformGainOnSilence(t *testing.T) {
	samples := make([]int16, ffmpeg.WaveformSampleRate)
	if gain := waveformGain(samples); gain != 1 {
		t.Fatalf("silence must not be amplified, got gain %v", gain)
	}
}
