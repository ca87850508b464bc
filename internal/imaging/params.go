package imaging

import "fmt"

// DefaultQuality is the encode quality used when the caller does not
// supply one. It also anchors the compress rule: Compress only lowers
// quality when the caller's value still equals this default.
const DefaultQuality = 85

// Rotation angles accepted by the pipeline. Anything else is rejected
// rather than interpolated.
var allowedRotations = map[int]bool{
	90: true, 180: true, 270: true,
	-90: true, -180: true, -270: true,
}

// TransformParams is the full, immutable set of options for a single
// transformation. Optional fields use pointers; nil means the stage is
// skipped. Every field participates in cache-key derivation.
type TransformParams struct {
	// Width and Height request a resize. Both set: exact resize, aspect
	// ratio not preserved. One set: the other axis scales to preserve
	// the source aspect ratio with integer rounding.
	Width  *int
	Height *int

	// Format is the output format: "jpeg", "jpg", "png", or "webp"
	// (case-insensitive). Empty means the source's native format, or
	// JPEG when that is not encodable.
	Format string

	// Quality is the encode quality in [1,100]. The zero value is
	// replaced with DefaultQuality by Normalize.
	Quality int

	// CropX, CropY, CropWidth, CropHeight clip to
	// [x, x+w) x [y, y+h). The crop runs only when all four are set;
	// out-of-range windows are a validation error, never clamped.
	CropX      *int
	CropY      *int
	CropWidth  *int
	CropHeight *int

	// Rotate is a signed angle in {90, 180, 270, -90, -180, -270}.
	// Positive angles rotate counter-clockwise. The canvas expands to
	// fit the rotated content.
	Rotate *int

	// Watermark is text drawn at the bottom-right of the final canvas.
	Watermark string

	// Grayscale desaturates the image. The result stays a 3-channel
	// image so later stages and encoders see a consistent layout.
	Grayscale bool

	// Enhance applies the fixed adjustment chain: sharpness x1.2,
	// contrast x1.1, saturation x1.05.
	Enhance bool

	// Compress forces the encode quality to 65, but only when Quality
	// equals DefaultQuality. A caller who deliberately passes 85 is
	// indistinguishable from one who left the default, and gets 65 too.
	// Do not "fix": clients depend on the observed behavior.
	Compress bool
}

// Normalize fills defaulted fields. Call before Validate.
func (p TransformParams) Normalize() TransformParams {
	if p.Quality == 0 {
		p.Quality = DefaultQuality
	}
	if p.Format != "" {
		p.Format = normalizeFormat(p.Format)
	}
	return p
}

// Validate checks every field against its contract. All violations are
// reported as ErrValidation so the caller can correct the input and
// retry; nothing about the service changes on a validation failure.
func (p TransformParams) Validate() error {
	if p.Quality < 1 || p.Quality > 100 {
		return fmt.Errorf("%w: quality %d not in [1,100]", ErrValidation, p.Quality)
	}
	if p.Width != nil && *p.Width < 1 {
		return fmt.Errorf("%w: width %d must be positive", ErrValidation, *p.Width)
	}
	if p.Height != nil && *p.Height < 1 {
		return fmt.Errorf("%w: height %d must be positive", ErrValidation, *p.Height)
	}
	if p.Format != "" && !encodableFormat(p.Format) {
		return fmt.Errorf("%w: format %q not in {jpeg, png, webp}", ErrValidation, p.Format)
	}
	if p.Rotate != nil && !allowedRotations[*p.Rotate] {
		return fmt.Errorf("%w: rotate %d not in {90, 180, 270, -90, -180, -270}", ErrValidation, *p.Rotate)
	}
	if p.hasPartialCrop() {
		return fmt.Errorf("%w: crop requires all of crop_x, crop_y, crop_width, crop_height", ErrValidation)
	}
	if p.hasCrop() {
		if *p.CropWidth < 1 || *p.CropHeight < 1 {
			return fmt.Errorf("%w: crop window %dx%d must be positive", ErrValidation, *p.CropWidth, *p.CropHeight)
		}
		if *p.CropX < 0 || *p.CropY < 0 {
			return fmt.Errorf("%w: crop origin (%d,%d) must be non-negative", ErrValidation, *p.CropX, *p.CropY)
		}
	}
	return nil
}

// hasCrop reports whether all four crop fields are present.
func (p TransformParams) hasCrop() bool {
	return p.CropX != nil && p.CropY != nil && p.CropWidth != nil && p.CropHeight != nil
}

// hasPartialCrop reports whether some but not all crop fields are set.
func (p TransformParams) hasPartialCrop() bool {
	n := 0
	for _, f := range []*int{p.CropX, p.CropY, p.CropWidth, p.CropHeight} {
		if f != nil {
			n++
		}
	}
	return n > 0 && n < 4
}

// effectiveQuality applies the compress rule. See the Compress field.
func (p TransformParams) effectiveQuality() int {
	if p.Compress && p.Quality == DefaultQuality {
		return 65
	}
	return p.Quality
}

// IntPtr is a convenience for building TransformParams literals.
func IntPtr(v int) *int { return &v }
