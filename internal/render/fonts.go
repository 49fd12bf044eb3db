package render

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

var (
	fontOnce    sync.Once
	titleFace   font.Face
	detailFace  font.Face
	captionFace font.Face
)

// faces lazily builds the three text faces from the bundled Go font so the
// renderer has no filesystem font dependency.
func faces() (font.Face, font.Face, font.Face) {
	fontOnce.Do(func() {
		parsed, err := opentype.Parse(goregular.TTF)
		if err != nil {
			// goregular.TTF is embedded and always parses; a failure here
			// means a corrupted toolchain, not bad input.
			panic(err)
		}
		titleFace = mustFace(parsed, 40)
		detailFace = mustFace(parsed, 28)
		captionFace = mustFace(parsed, 26)
	})
	return titleFace, detailFace, captionFace
}

func mustFace(parsed *sfnt.Font, size float64) font.Face {
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		panic(err)
	}
	return face
}
