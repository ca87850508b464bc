package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF format decoder
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WEBP format decoder
)

// Result is the outcome of a transformation: encoded bytes and the
// resolved output format.
type Result struct {
	Bytes  []byte
	Format string

	// Cached reports whether the bytes came from the result cache
	// rather than a pipeline run.
	Cached bool
}

// Fixed enhance multipliers. Not caller-configurable.
const (
	enhanceSharpenRadius = 1.0
	enhanceSharpenAmount = 0.2  // sharpness x1.2
	enhanceContrast      = 0.1  // contrast x1.1
	enhanceSaturation    = 0.05 // saturation x1.05
)

// decodeImage decodes raw bytes, reporting ErrDecode on failure. The
// returned format is the source's native format name ("jpeg", "png",
// "gif", "webp").
func decodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// runPipeline applies the transformation stages to data in a fixed
// order and encodes the result.
//
// Stage order: color normalization, crop, resize, rotate, grayscale,
// watermark, enhance, encode. Crop and resize run before rotate and
// watermark so the expensive stages work on the smallest canvas; the
// ordering is observable (the watermark lands on the rotated canvas)
// and must not change.
//
// The pipeline is deterministic: identical (data, params) inputs yield
// bit-identical output. The result cache depends on that.
func runPipeline(data []byte, p TransformParams) (*Result, error) {
	src, native, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	// Flatten alpha and palette modes onto an opaque white background
	// so every later stage sees one representation.
	img := flatten(src)

	if p.hasCrop() {
		img, err = cropStage(img, *p.CropX, *p.CropY, *p.CropWidth, *p.CropHeight)
		if err != nil {
			return nil, err
		}
	}

	if p.Width != nil || p.Height != nil {
		img = resizeStage(img, p.Width, p.Height)
	}

	if p.Rotate != nil {
		img = rotateStage(img, *p.Rotate)
	}

	if p.Grayscale {
		// Grayscale keeps the NRGBA layout, so the image stays
		// 3-channel for the watermark and encode stages.
		img = imaging.Grayscale(img)
	}

	if p.Watermark != "" {
		img = drawWatermark(img, p.Watermark)
	}

	if p.Enhance {
		img = enhanceStage(img)
	}

	format := resolveFormat(p.Format, native)
	out, err := encode(img, format, p.effectiveQuality())
	if err != nil {
		return nil, err
	}
	return &Result{Bytes: out, Format: format}, nil
}

// flatten composites img over an opaque white canvas, yielding NRGBA.
func flatten(src image.Image) *image.NRGBA {
	b := src.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return imaging.Overlay(bg, src, image.Pt(0, 0), 1.0)
}

// cropStage clips to [x, x+w) x [y, y+h). Windows that reach outside
// the canvas are an error, never clamped.
func cropStage(img *image.NRGBA, x, y, w, h int) (*image.NRGBA, error) {
	b := img.Bounds()
	if x+w > b.Dx() || y+h > b.Dy() {
		return nil, fmt.Errorf("%w: crop window (%d,%d)+%dx%d exceeds image bounds %dx%d",
			ErrValidation, x, y, w, h, b.Dx(), b.Dy())
	}
	return imaging.Crop(img, image.Rect(x, y, x+w, y+h)), nil
}

// resizeStage resizes to the requested dimensions. With both axes set
// the resize is exact; with one, the other scales to preserve the
// source aspect ratio using integer rounding.
func resizeStage(img *image.NRGBA, width, height *int) *image.NRGBA {
	b := img.Bounds()
	ow, oh := b.Dx(), b.Dy()

	var w, h int
	switch {
	case width != nil && height != nil:
		w, h = *width, *height
	case width != nil:
		w = *width
		h = int(math.Round(float64(w) * float64(oh) / float64(ow)))
	default:
		h = *height
		w = int(math.Round(float64(h) * float64(ow) / float64(oh)))
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// rotateStage rotates by a whitelisted angle. Positive angles are
// counter-clockwise; the canvas expands to hold the rotated content.
func rotateStage(img *image.NRGBA, degrees int) *image.NRGBA {
	switch degrees {
	case 90, -270:
		return imaging.Rotate90(img)
	case 180, -180:
		return imaging.Rotate180(img)
	case 270, -90:
		return imaging.Rotate270(img)
	}
	return img // unreachable after Validate
}

// fitWithin scales img down to fit inside w x h, preserving aspect
// ratio. Images already inside the box are returned unscaled.
func fitWithin(img image.Image, w, h int) *image.NRGBA {
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

// enhanceStage applies the fixed quality-enhancement chain: unsharp
// mask, then contrast, then saturation.
func enhanceStage(img image.Image) *image.NRGBA {
	sharpened := effect.UnsharpMask(img, enhanceSharpenRadius, enhanceSharpenAmount)
	contrasted := adjust.Contrast(sharpened, enhanceContrast)
	saturated := adjust.Saturation(contrasted, enhanceSaturation)
	return imaging.Clone(saturated)
}
