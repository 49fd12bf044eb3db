package render

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// defaultBaseColor is used when no vibrant pixel can be found in the
// profile image (or there is no profile image at all).
var defaultBaseColor = colorful.Color{R: 0.22, G: 0.47, B: 0.87}

// pixelSampleStride keeps palette extraction cheap on large profile images.
const pixelSampleStride = 4

// BaseColor resolves the waveform gradient's base color for a creator.
// A per-creator override wins over automatic extraction; overrides exist for
// profile art where the extracted color looks wrong on the canvas.
func BaseColor(overrides map[string]string, creator string, profile image.Image) colorful.Color {
	if hex, ok := overrides[creator]; ok {
		if col, err := colorful.Hex(hex); err == nil {
			return col
		}
	}
	return VibrantColor(profile)
}

// VibrantColor scans the image for the most vibrant pixel: high saturation,
// lightness away from both extremes, and not in the muddy brown band.
func VibrantColor(profile image.Image) colorful.Color {
	if profile == nil {
		return defaultBaseColor
	}

	bounds := profile.Bounds()
	best := defaultBaseColor
	bestScore := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += pixelSampleStride {
		for x := bounds.Min.X; x < bounds.Max.X; x += pixelSampleStride {
			col, ok := colorful.MakeColor(profile.At(x, y))
			if !ok {
				continue
			}
			hue, sat, val := col.Hsv()
			if sat < 0.35 || val < 0.25 || val > 0.92 {
				continue
			}
			if isBrown(hue, sat, val) {
				continue
			}
			score := sat * val
			if score > bestScore {
				bestScore = score
				best = col
			}
		}
	}
	return best
}

// isBrown flags desaturated orange tones that read as brown on screen.
func isBrown(hue, sat, val float64) bool {
	return hue >= 20 && hue <= 50 && (sat < 0.75 || val < 0.6)
}
