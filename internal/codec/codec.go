package codec

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Codec is the interface for image decode, resize and encode operations.
type Codec interface {
	// Decode reads and decodes the image at the given path.
	Decode(path string) (image.Image, error)
	// Fit downscales the image so both dimensions fit within maxDimension.
	// Images that already fit are returned unchanged in size.
	Fit(img image.Image, maxDimension int) image.Image
	// Encode encodes the image into the format implied by the destination
	// extension. Quality applies to JPEG output only.
	Encode(img image.Image, destExt string, quality int) ([]byte, error)
}

// ImagingCodec implements Codec using the disintegration/imaging library.
type ImagingCodec struct{}

// NewImagingCodec creates a new ImagingCodec instance.
func NewImagingCodec() *ImagingCodec {
	return &ImagingCodec{}
}

// Decode opens and decodes an image file, applying EXIF orientation.
func (c *ImagingCodec) Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Fit downscales the image with Lanczos resampling so that both
// dimensions fit within maxDimension. It never upscales.
func (c *ImagingCodec) Fit(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}

// Encode encodes the image to an in-memory buffer. PNG destinations are
// encoded as PNG; everything else is encoded as JPEG at the given quality.
func (c *ImagingCodec) Encode(img image.Image, destExt string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch strings.ToLower(destExt) {
	case ".png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", destExt, err)
	}
	return buf.Bytes(), nil
}

// OutputExtension maps a source file extension to the extension the
// compressed output will carry. JPEG and PNG keep their extension; other
// supported formats are re-encoded as JPEG.
func OutputExtension(sourceExt string) string {
	switch strings.ToLower(sourceExt) {
	case ".jpg", ".jpeg", ".png":
		return strings.ToLower(sourceExt)
	default:
		return ".jpg"
	}
}

// OutputPathFor returns the destination path for a source file: the same
// path with the output extension applied.
func OutputPathFor(destDir, relPath string) string {
	ext := filepath.Ext(relPath)
	mapped := strings.TrimSuffix(relPath, ext) + OutputExtension(ext)
	return filepath.Join(destDir, mapped)
}

// IsJPEG reports whether the path has a JPEG extension.
func IsJPEG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}
