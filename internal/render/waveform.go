package render

import (
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// minBarFraction keeps a visible baseline during silence so the waveform
// never collapses to a flat line.
const minBarFraction = 0.04

// drawWaveform fills the region (x, y, width, height) with a waveform
// mirrored around the region's vertical center. Each entry of bars is the
// normalized RMS energy of one audio block; the envelope through the bar
// peaks is smoothed with quadratic beziers through segment midpoints.
func drawWaveform(dc *gg.Context, bars []float64, base colorful.Color, x, y, width, height float64) {
	if len(bars) == 0 {
		return
	}

	center := y + height/2
	amplitude := height / 2
	step := width / float64(len(bars))

	points := make([]gg.Point, len(bars))
	for i, bar := range bars {
		if bar < minBarFraction {
			bar = minBarFraction
		}
		if bar > 1 {
			bar = 1
		}
		points[i] = gg.Point{
			X: x + step*(float64(i)+0.5),
			Y: center - bar*amplitude,
		}
	}

	tracePeaks := func(mirror bool) {
		flip := func(py float64) float64 {
			if mirror {
				return 2*center - py
			}
			return py
		}
		dc.MoveTo(x, center)
		dc.LineTo(points[0].X, flip(points[0].Y))
		for i := 0; i < len(points)-1; i++ {
			midX := (points[i].X + points[i+1].X) / 2
			midY := (flip(points[i].Y) + flip(points[i+1].Y)) / 2
			dc.QuadraticTo(points[i].X, flip(points[i].Y), midX, midY)
		}
		last := points[len(points)-1]
		dc.QuadraticTo(last.X, flip(last.Y), x+width, center)
		dc.ClosePath()
	}

	light := lighten(base, 0.35)
	gradient := gg.NewLinearGradient(x, y, x, y+height)
	gradient.AddColorStop(0, light)
	gradient.AddColorStop(0.5, base)
	gradient.AddColorStop(1, light)
	dc.SetFillStyle(gradient)

	tracePeaks(false)
	dc.Fill()
	tracePeaks(true)
	dc.Fill()
}

func lighten(col colorful.Color, amount float64) colorful.Color {
	h, s, v := col.Hsv()
	v += (1 - v) * amount
	s *= 1 - amount/2
	return colorful.Hsv(h, s, v)
}
