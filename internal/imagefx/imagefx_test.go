package imagefx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func solidImage(c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestApply_ZeroKnobsPreservePixels(t *testing.T) {
	in := encodePNG(t, solidImage(color.NRGBA{R: 120, G: 80, B: 40, A: 255}))

	out, err := Apply(in, "png", Options{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if r>>8 != 120 || g>>8 != 80 || b>>8 != 40 {
		t.Fatalf("pixels changed with zero knobs: got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestApply_BrightnessShiftsPixels(t *testing.T) {
	in := encodePNG(t, solidImage(color.NRGBA{R: 100, G: 100, B: 100, A: 255}))

	out, err := Apply(in, "png", Options{Brightness: 30})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, _, _, _ := img.At(3, 3).RGBA()
	if r>>8 <= 100 {
		t.Fatalf("expected brighter pixel, got %d", r>>8)
	}
}

func TestApply_FlattensTransparencyToWhite(t *testing.T) {
	in := encodePNG(t, solidImage(color.NRGBA{A: 0}))

	out, err := Apply(in, "jpg", Options{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	// JPEG is lossy; just require near-white rather than black
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("transparent input not flattened to white: %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestApply_RejectsUnknownExtension(t *testing.T) {
	if _, err := Apply([]byte("not an image"), "bmp", Options{}); err != ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Apply([]byte("not an image"), "exe", Options{}); err != ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestApply_OutOfRangeKnobsAreClamped(t *testing.T) {
	in := encodePNG(t, solidImage(color.NRGBA{R: 100, G: 100, B: 100, A: 255}))

	clamped, err := Apply(in, "png", Options{Brightness: 500})
	if err != nil {
		t.Fatalf("apply clamped: %v", err)
	}
	atLimit, err := Apply(in, "png", Options{Brightness: 50})
	if err != nil {
		t.Fatalf("apply at limit: %v", err)
	}
	if !bytes.Equal(clamped, atLimit) {
		t.Fatal("brightness=500 must behave like brightness=50")
	}
}

func TestAllowedExt(t *testing.T) {
	for _, ok := range []string{"png", "JPG", ".jpeg", "gif"} {
		if !AllowedExt(ok) {
			t.Errorf("expected %q allowed", ok)
		}
	}
	for _, bad := range []string{"bmp", "svg", "webp", ""} {
		if AllowedExt(bad) {
			t.Errorf("expected %q rejected", bad)
		}
	}
}

func TestMIMETypeAndDataURL(t *testing.T) {
	if MIMEType("png") != "image/png" || MIMEType("jpg") != "image/jpeg" {
		t.Fatal("unexpected mime mapping")
	}
	url := DataURL("image/png", "aGVsbG8=")
	if url != "data:image/png;base64,aGVsbG8=" {
		t.Fatalf("unexpected data url %q", url)
	}
}
