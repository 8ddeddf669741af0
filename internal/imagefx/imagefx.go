// Package imagefx applies post-generation adjustments (brightness, contrast,
// saturation, style filter) to raw image bytes.
package imagefx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned for extensions outside the allow-list.
var ErrUnsupportedFormat = errors.New("imagefx: unsupported image format")

const (
	knobMin = -50
	knobMax = 50

	jpegQuality = 90
)

// Options are the user-facing adjustment knobs. Each knob is a percentage
// delta clamped to [-50, 50]; zero means leave that channel untouched.
type Options struct {
	Brightness int
	Contrast   int
	Saturation int
	Style      string // "", "vintage" or "modern"
}

var allowedExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// AllowedExt reports whether the file extension (without dot, any case) is
// one we accept for upload.
func AllowedExt(ext string) bool {
	return allowedExts[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// Apply decodes data, applies the requested adjustments and re-encodes.
// PNG input stays PNG; everything else comes back as JPEG. Transparency is
// flattened onto white so the JPEG encode cannot go black.
func Apply(data []byte, ext string, opts Options) ([]byte, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !allowedExts[ext] {
		return nil, ErrUnsupportedFormat
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagefx: decode: %w", err)
	}

	img := flattenToWhite(src)

	if b := clampKnob(opts.Brightness); b != 0 {
		img = imaging.AdjustBrightness(img, float64(b))
	}
	if c := clampKnob(opts.Contrast); c != 0 {
		img = imaging.AdjustContrast(img, float64(c))
	}
	if s := clampKnob(opts.Saturation); s != 0 {
		img = imaging.AdjustSaturation(img, float64(s))
	}

	switch opts.Style {
	case "vintage":
		img = imaging.Blur(img, 0.5)
	case "modern":
		img = imaging.Sharpen(img, 1.0)
	}

	var buf bytes.Buffer
	if ext == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("imagefx: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// MIMEType maps an accepted extension to its content type. The caller must
// have validated the extension already.
func MIMEType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// DataURL renders encoded image bytes as a data URL for storage.
func DataURL(mime string, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

func clampKnob(v int) int {
	if v < knobMin {
		return knobMin
	}
	if v > knobMax {
		return knobMax
	}
	return v
}

// flattenToWhite composites the source over an opaque white background.
func flattenToWhite(src image.Image) *image.NRGBA {
	bg := imaging.New(src.Bounds().Dx(), src.Bounds().Dy(), color.White)
	return imaging.OverlayCenter(bg, src, 1.0)
}
