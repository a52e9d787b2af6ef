package codec

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestFitDownscalesLargeImages(t *testing.T) {
	c := NewImagingCodec()
	img := imaging.New(4000, 2000, color.NRGBA{R: 120, G: 120, B: 120, A: 255})

	fitted := c.Fit(img, 1920)
	bounds := fitted.Bounds()

	if bounds.Dx() != 1920 || bounds.Dy() != 960 {
		t.Errorf("Fit(4000x2000, 1920) = %dx%d, expected 1920x960", bounds.Dx(), bounds.Dy())
	}
}

func TestFitLeavesSmallImagesUnchanged(t *testing.T) {
	c := NewImagingCodec()
	img := imaging.New(800, 600, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	fitted := c.Fit(img, 1920)
	if fitted.Bounds() != img.Bounds() {
		t.Errorf("Fit(800x600, 1920) changed bounds to %v", fitted.Bounds())
	}
}

func TestEncodeJPEGQuality(t *testing.T) {
	c := NewImagingCodec()
	img := noisyImage(400, 300)

	high, err := c.Encode(img, ".jpg", 95)
	if err != nil {
		t.Fatalf("Encode quality 95 failed: %v", err)
	}
	low, err := c.Encode(img, ".jpg", 10)
	if err != nil {
		t.Fatalf("Encode quality 10 failed: %v", err)
	}

	if len(low) >= len(high) {
		t.Errorf("quality 10 output (%d bytes) not smaller than quality 95 output (%d bytes)",
			len(low), len(high))
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	c := NewImagingCodec()
	img := imaging.New(64, 48, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	data, err := c.Encode(img, ".png", 85)
	if err != nil {
		t.Fatalf("Encode PNG failed: %v", err)
	}

	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding PNG output failed: %v", err)
	}
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 48 {
		t.Errorf("decoded bounds = %v, expected 64x48", decoded.Bounds())
	}
}

func TestOutputExtension(t *testing.T) {
	tests := []struct {
		sourceExt string
		expected  string
	}{
		{".jpg", ".jpg"},
		{".JPG", ".jpg"},
		{".jpeg", ".jpeg"},
		{".png", ".png"},
		{".bmp", ".jpg"},
		{".tif", ".jpg"},
		{".gif", ".jpg"},
	}

	for _, test := range tests {
		if got := OutputExtension(test.sourceExt); got != test.expected {
			t.Errorf("OutputExtension(%s) = %s, expected %s", test.sourceExt, got, test.expected)
		}
	}
}

func TestOutputPathFor(t *testing.T) {
	got := OutputPathFor("/out", filepath.Join("sub", "photo.BMP"))
	expected := filepath.Join("/out", "sub", "photo.jpg")
	if got != expected {
		t.Errorf("OutputPathFor = %s, expected %s", got, expected)
	}
}

// noisyImage builds an image with enough pixel variance that JPEG quality
// settings produce meaningfully different output sizes.
func noisyImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	seed := uint32(12345)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed = seed*1664525 + 1013904223
			img.Set(x, y, color.NRGBA{
				R: uint8(seed >> 24),
				G: uint8(seed >> 16),
				B: uint8(seed >> 8),
				A: 255,
			})
		}
	}
	return img
}
