package imaging

import (
	"bytes"
	"fmt"
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor is an 8-bit RGB triple.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor is a color in HSL space: hue 0-360, saturation and
// lightness 0-100.
type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorSummary describes one color in the three representations
// callers commonly want.
type ColorSummary struct {
	Hex string   `json:"hex"`
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

// SourceInfo is the metadata report for a source image.
type SourceInfo struct {
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`

	// AverageColor is set only when color analysis was requested.
	AverageColor *ColorSummary `json:"average_color,omitempty"`
}

// probeInfo reads format and dimensions from the image header without
// decoding pixel data.
func probeInfo(data []byte) (*SourceInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &SourceInfo{
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: int64(len(data)),
	}, nil
}

// averageColor computes the arithmetic mean color of img.
func averageColor(img image.Image) ColorSummary {
	b := img.Bounds()
	var rSum, gSum, bSum, n uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			rSum += uint64(r >> 8)
			gSum += uint64(g >> 8)
			bSum += uint64(bl >> 8)
			n++
		}
	}
	if n == 0 {
		n = 1
	}

	c := colorful.Color{
		R: float64(rSum/n) / 255.0,
		G: float64(gSum/n) / 255.0,
		B: float64(bSum/n) / 255.0,
	}
	h, s, l := c.Hsl()
	return ColorSummary{
		Hex: c.Hex(),
		RGB: RGBColor{R: uint8(rSum / n), G: uint8(gSum / n), B: uint8(bSum / n)},
		HSL: HSLColor{H: int(h + 0.5), S: int(s*100 + 0.5), L: int(l*100 + 0.5)},
	}
}
