package compressor

import (
	"image-compressor-go/internal/codec"
	"image-compressor-go/internal/exifmeta"

	"github.com/sirupsen/logrus"
)

// Options configure per-file compression behavior.
type Options struct {
	// Overwrite replaces existing destination files instead of skipping them.
	Overwrite bool
	// SkipMarked skips JPEG sources whose EXIF Software tag shows they
	// were already produced by this tool.
	SkipMarked bool
	// PreserveMetadata copies EXIF from source to output and stamps the
	// Software mark. Requires the exiftool binary.
	PreserveMetadata bool
}

// DefaultCompressor processes one task at a time: decode, downscale,
// re-encode, evaluate against the compression policy, and write the
// result. It implements pipeline.Processor.
type DefaultCompressor struct {
	codec  codec.Codec
	meta   *exifmeta.Manager
	logger *logrus.Logger
	opts   Options
}

// New creates a DefaultCompressor. meta may be nil; mark detection then
// uses the in-process EXIF reader only.
func New(c codec.Codec, meta *exifmeta.Manager, logger *logrus.Logger, opts Options) *DefaultCompressor {
	return &DefaultCompressor{
		codec:  c,
		meta:   meta,
		logger: logger,
		opts:   opts,
	}
}
