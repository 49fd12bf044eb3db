package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
)

// FrameState is the complete, immutable input for one output frame.
// RenderFrame is a pure function of this value, so frames can be rasterized
// concurrently without shared drawing state.
type FrameState struct {
	Width  int
	Height int

	Base      colorful.Color
	Profile   image.Image
	Watermark image.Image

	Title    string
	Subtitle string

	// Bars holds the normalized RMS energy of the audio blocks backing this
	// frame's waveform, left to right.
	Bars []float64

	// Caption is the active subtitle text at this frame's timestamp, empty
	// when no cue covers it.
	Caption string
}

// RenderFrame rasterizes one frame of the clip video.
func RenderFrame(state FrameState) image.Image {
	dc := gg.NewContext(state.Width, state.Height)
	w := float64(state.Width)
	h := float64(state.Height)
	margin := w / 20

	drawBackground(dc, state.Base, w, h)

	profileSize := h / 3
	drawProfile(dc, state.Profile, state.Base, margin, margin, profileSize)

	titleFont, detailFont, captionFont := faces()
	textX := margin*2 + profileSize
	dc.SetColor(color.White)
	dc.SetFontFace(titleFont)
	dc.DrawStringAnchored(TruncateMiddle(state.Title, titleMaxChars), textX, margin+profileSize*0.38, 0, 0.5)
	dc.SetFontFace(detailFont)
	dc.SetColor(color.RGBA{R: 225, G: 225, B: 230, A: 255})
	dc.DrawStringAnchored(TruncateMiddle(state.Subtitle, subtitleMaxChars), textX, margin+profileSize*0.68, 0, 0.5)

	drawWaveform(dc, state.Bars, state.Base, margin, h*0.50, w-2*margin, h*0.32)

	drawWatermark(dc, state.Watermark, w, h, margin)

	if state.Caption != "" {
		dc.SetFontFace(captionFont)
		drawCaption(dc, state.Caption, w, h)
	}

	return dc.Image()
}

// drawBackground paints a vertical gradient from near-black to a heavily
// darkened tint of the base color.
func drawBackground(dc *gg.Context, base colorful.Color, w, h float64) {
	hue, sat, _ := base.Hsv()
	top := colorful.Hsv(hue, sat*0.6, 0.10)
	bottom := colorful.Hsv(hue, sat*0.8, 0.22)
	gradient := gg.NewLinearGradient(0, 0, 0, h)
	gradient.AddColorStop(0, top)
	gradient.AddColorStop(1, bottom)
	dc.SetFillStyle(gradient)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

// drawProfile places the creator image in a rounded, bordered box. The
// image is scaled to the box before clipping.
func drawProfile(dc *gg.Context, profile image.Image, base colorful.Color, x, y, size float64) {
	if profile == nil {
		return
	}
	radius := size / 8

	scaled := image.NewRGBA(image.Rect(0, 0, int(size), int(size)))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), profile, profile.Bounds(), xdraw.Over, nil)

	dc.Push()
	dc.DrawRoundedRectangle(x, y, size, size, radius)
	dc.Clip()
	dc.DrawImage(scaled, int(x), int(y))
	dc.Pop()
	dc.ResetClip()

	dc.SetColor(lighten(base, 0.5))
	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(x, y, size, size, radius)
	dc.Stroke()
}

func drawWatermark(dc *gg.Context, watermark image.Image, w, h, margin float64) {
	if watermark == nil {
		return
	}
	targetH := h / 12
	bounds := watermark.Bounds()
	scale := targetH / float64(bounds.Dy())
	targetW := float64(bounds.Dx()) * scale

	scaled := image.NewRGBA(image.Rect(0, 0, int(targetW), int(targetH)))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), watermark, bounds, xdraw.Over, nil)
	dc.DrawImage(scaled, int(w-margin-targetW), int(h-margin-targetH))
}

// drawCaption renders the active cue in a semi-transparent rounded box
// centered near the bottom of the canvas. The caption face must already be
// set on the context.
func drawCaption(dc *gg.Context, caption string, w, h float64) {
	text := TruncateMiddle(caption, subtitleMaxChars)
	textW, textH := dc.MeasureString(text)

	padX := 24.0
	padY := 14.0
	boxW := textW + 2*padX
	boxH := textH + 2*padY
	boxX := (w - boxW) / 2
	boxY := h*0.90 - boxH/2

	dc.SetRGBA(0, 0, 0, 0.62)
	dc.DrawRoundedRectangle(boxX, boxY, boxW, boxH, boxH/4)
	dc.Fill()

	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, w/2, boxY+boxH/2, 0.5, 0.35)
}
