package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
)

// Output formats the service can encode. Sources in other decodable
// formats (e.g. GIF) fall back to JPEG on output.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

func normalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "jpg" {
		return FormatJPEG
	}
	return f
}

func encodableFormat(f string) bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP:
		return true
	}
	return false
}

// resolveFormat picks the output format: the explicit request wins,
// then the source's native format, then the JPEG default.
func resolveFormat(requested, native string) string {
	if requested != "" {
		return requested
	}
	if encodableFormat(native) {
		return native
	}
	return FormatJPEG
}

// encode serializes img in the given format.
//
// Per-format options are fixed: JPEG takes the quality setting (the Go
// encoder always chroma-subsamples color images), PNG uses maximum
// compression, WEBP is lossy at the given quality. Quality has no
// effect on PNG.
func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", ErrEncode, err)
		}
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: png: %v", ErrEncode, err)
		}
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("%w: webp: %v", ErrEncode, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrEncode, format)
	}
	return buf.Bytes(), nil
}
