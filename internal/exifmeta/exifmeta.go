package exifmeta

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
)

// SoftwareMark is written into the EXIF Software tag of every JPEG this
// tool produces, so later runs can recognize their own output.
const SoftwareMark = "ImageCompressor"

// HasMark reports whether the file's EXIF Software tag already carries
// the compressor mark. Decoding happens in-process; any read or decode
// failure is treated as unmarked.
func HasMark(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		return false
	}
	tag, err := x.Get(exif.Software)
	if err != nil {
		return false
	}
	val, err := tag.StringVal()
	if err != nil {
		return false
	}
	return strings.Contains(val, SoftwareMark)
}

// Manager wraps a persistent exiftool process for metadata reads. It is
// optional: callers fall back to HasMark when no exiftool binary is
// available.
type Manager struct {
	et *exiftool.Exiftool
}

// NewManager starts an exiftool process. Returns an error when the
// binary is not installed.
func NewManager() (*Manager, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &Manager{et: et}, nil
}

// Close shuts down the exiftool process.
func (m *Manager) Close() {
	if m.et != nil {
		_ = m.et.Close()
	}
}

// HasMark checks the Software tag through exiftool, which also reads
// formats goexif cannot.
func (m *Manager) HasMark(path string) (bool, error) {
	files := m.et.ExtractMetadata(path)
	if len(files) == 0 {
		return false, fmt.Errorf("no metadata for %s", path)
	}
	if files[0].Err != nil {
		return false, files[0].Err
	}
	sw := files[0].Fields["Software"]
	if swStr, ok := sw.(string); ok && strings.Contains(swStr, SoftwareMark) {
		return true, nil
	}
	return false, nil
}

// CopyWithMark copies all metadata from src onto dst and stamps the
// Software tag with the compressor mark using the exiftool binary.
func CopyWithMark(src, dst string) error {
	cmdCopy := exec.Command("exiftool", "-TagsFromFile", src, "-overwrite_original", dst)
	if err := cmdCopy.Run(); err != nil {
		return fmt.Errorf("exiftool copy failed: %v", err)
	}
	cmdSet := exec.Command("exiftool", "-overwrite_original", "-Software="+SoftwareMark, dst)
	if err := cmdSet.Run(); err != nil {
		return fmt.Errorf("exiftool set Software failed: %v", err)
	}
	return nil
}
