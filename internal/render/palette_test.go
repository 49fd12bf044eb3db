package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func solidImage(fill color.RGBA, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	return img
}

func TestVibrantColorPicksSaturatedPixel(t *testing.T) {
	img := solidImage(color.RGBA{R: 40, G: 40, B: 40, A: 255}, 16)
	// One vivid blue patch among dark gray.
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 20, G: 80, B: 230, A: 255})
		}
	}

	got := VibrantColor(img)
	hue, sat, _ := got.Hsv()
	if sat < 0.5 {
		t.Fatalf("expected a saturated pick, got saturation %v", sat)
	}
	if hue < 180 || hue > 260 {
		t.Fatalf("expected the blue patch, got hue %v", hue)
	}
}

func TestVibrantColorSkipsBrown(t *testing.T) {
	brown := solidImage(color.RGBA{R: 120, G: 75, B: 30, A: 255}, 16)
	got := VibrantColor(brown)
	if got != defaultBaseColor {
		t.Fatalf("brown-only image should fall back to the default, got %+v", got)
	}
}

func TestVibrantColorNilImage(t *testing.T) {
	if got := VibrantColor(nil); got != defaultBaseColor {
		t.Fatalf("nil image should yield the default color, got %+v", got)
	}
}

func TestBaseColorCreatorOverrideWins(t *testing.T) {
	vivid := solidImage(color.RGBA{R: 20, G: 200, B: 60, A: 255}, 8)
	overrides := map[string]string{"acme": "#ff0055"}

	got := BaseColor(overrides, "acme", vivid)
	want, _ := colorful.Hex("#ff0055")
	if got != want {
		t.Fatalf("override should win over extraction: got %+v want %+v", got, want)
	}

	// Unknown creator falls through to extraction.
	extracted := BaseColor(overrides, "other", vivid)
	if extracted == want {
		t.Fatal("unknown creator must not use the override color")
	}
}

func TestBaseColorBadOverrideFallsBack(t *testing.T) {
	got := BaseColor(map[string]string{"acme": "not-a-color"}, "acme", nil)
	if got != defaultBaseColor {
		t.Fatalf("invalid override hex should fall back, got %+v", got)
	}
}
