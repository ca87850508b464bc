package imaging

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// watermarkMargin is the distance in pixels from the right and bottom
// edges of the canvas.
const watermarkMargin = 10

var (
	watermarkFontOnce sync.Once
	watermarkFont     *truetype.Font
)

// watermarkFace returns a TrueType face at the given size, or nil when
// no font can be parsed. A nil face leaves gg's built-in default in
// place, so font loading can never fail a transformation.
func watermarkFace(size float64) font.Face {
	watermarkFontOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		watermarkFont = f
	})
	if watermarkFont == nil {
		return nil
	}
	return truetype.NewFace(watermarkFont, &truetype.Options{Size: size})
}

// drawWatermark renders text at the bottom-right of the current canvas
// in translucent white. Font size scales with the canvas width:
// max(20, width/20).
func drawWatermark(img *image.NRGBA, text string) *image.NRGBA {
	b := img.Bounds()
	size := b.Dx() / 20
	if size < 20 {
		size = 20
	}

	dc := gg.NewContextForImage(img)
	if face := watermarkFace(float64(size)); face != nil {
		dc.SetFontFace(face)
	}

	tw, _ := dc.MeasureString(text)
	x := float64(b.Dx()) - tw - watermarkMargin
	y := float64(b.Dy()) - watermarkMargin

	dc.SetRGBA(1, 1, 1, 0.5)
	dc.DrawString(text, x, y)
	return imaging.Clone(dc.Image())
}
