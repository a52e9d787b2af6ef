package compressor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"image-compressor-go/internal/codec"
	"image-compressor-go/internal/exifmeta"
	"image-compressor-go/internal/pipeline"
	"image-compressor-go/internal/policy"
)

// Process compresses a single file and returns its outcome. All errors
// are caught at this boundary and reported as a Failed outcome.
func (c *DefaultCompressor) Process(ctx context.Context, task pipeline.Task) pipeline.Outcome {
	outcome := pipeline.Outcome{
		TaskID:     task.ID,
		SourcePath: task.SourcePath,
		DestPath:   task.DestPath,
	}

	if err := ctx.Err(); err != nil {
		return failed(outcome, "canceled", err)
	}

	info, err := os.Stat(task.SourcePath)
	if err != nil {
		return failed(outcome, "read", fmt.Errorf("stat source: %w", err))
	}
	if info.Size() == 0 {
		return failed(outcome, "read", errors.New("zero-byte source file"))
	}
	outcome.OriginalBytes = info.Size()

	if !c.opts.Overwrite {
		if _, err := os.Stat(task.DestPath); err == nil {
			return skipped(outcome, "destination exists")
		}
	}

	if c.opts.SkipMarked && codec.IsJPEG(task.SourcePath) && c.alreadyMarked(task.SourcePath) {
		return skipped(outcome, "already compressed")
	}

	img, err := c.codec.Decode(task.SourcePath)
	if err != nil {
		return failed(outcome, "decode", err)
	}

	img = c.codec.Fit(img, task.MaxDimension)

	data, err := c.codec.Encode(img, filepath.Ext(task.DestPath), task.Quality)
	if err != nil {
		return failed(outcome, "encode", err)
	}

	if err := os.MkdirAll(filepath.Dir(task.DestPath), 0755); err != nil {
		return failed(outcome, "write", fmt.Errorf("create destination dir: %w", err))
	}

	compressedSize := int64(len(data))
	if policy.Decide(outcome.OriginalBytes, compressedSize, task.MinRatio) == policy.Reject {
		// Keep the output tree complete: the original passes through unchanged.
		if err := copyFile(task.SourcePath, task.DestPath); err != nil {
			return failed(outcome, "write", fmt.Errorf("copy original: %w", err))
		}
		outcome.CompressedBytes = outcome.OriginalBytes
		reason := "compressed output not smaller"
		if compressedSize < outcome.OriginalBytes {
			reason = fmt.Sprintf("insufficient compression: %.1f%% < %.1f%%",
				policy.SavedPercent(outcome.OriginalBytes, compressedSize), task.MinRatio)
		}
		return skipped(outcome, reason)
	}

	tmpPath := task.DestPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return failed(outcome, "write", fmt.Errorf("write temp file: %w", err))
	}

	if c.opts.PreserveMetadata && codec.IsJPEG(task.DestPath) {
		if err := exifmeta.CopyWithMark(task.SourcePath, tmpPath); err != nil {
			c.logger.Warnf("Metadata not preserved for %s: %v", task.SourcePath, err)
		} else if tmpInfo, err := os.Stat(tmpPath); err == nil {
			// exiftool rewrites the file; pick up the final size.
			compressedSize = tmpInfo.Size()
		}
	}

	if err := os.Rename(tmpPath, task.DestPath); err != nil {
		_ = os.Remove(tmpPath)
		return failed(outcome, "write", fmt.Errorf("rename into place: %w", err))
	}

	outcome.Status = pipeline.StatusCompressed
	outcome.CompressedBytes = compressedSize
	outcome.SavedPercent = policy.SavedPercent(outcome.OriginalBytes, compressedSize)
	return outcome
}

// alreadyMarked checks whether the source JPEG carries the compressor's
// Software mark, preferring the persistent exiftool process when one is
// available.
func (c *DefaultCompressor) alreadyMarked(path string) bool {
	if exifmeta.HasMark(path) {
		return true
	}
	if c.meta != nil {
		marked, err := c.meta.HasMark(path)
		if err != nil {
			c.logger.Debugf("Mark check via exiftool failed for %s: %v", path, err)
			return false
		}
		return marked
	}
	return false
}

func failed(outcome pipeline.Outcome, operation string, err error) pipeline.Outcome {
	outcome.Status = pipeline.StatusFailed
	outcome.Reason = operation
	outcome.Err = err
	return outcome
}

func skipped(outcome pipeline.Outcome, reason string) pipeline.Outcome {
	outcome.Status = pipeline.StatusSkipped
	outcome.Reason = reason
	if outcome.CompressedBytes == 0 {
		outcome.CompressedBytes = outcome.OriginalBytes
	}
	return outcome
}

// copyFile copies src to dst, syncing the destination before returning.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
