package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"image-compressor-go/internal/codec"

	"github.com/google/uuid"
)

// Status is the terminal state of a single file's compression attempt.
type Status string

const (
	StatusCompressed Status = "compressed"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Task describes one file to compress. Tasks are immutable once created
// and consumed by exactly one worker.
type Task struct {
	ID           uuid.UUID
	SourcePath   string
	DestPath     string
	Quality      int
	MaxDimension int
	MinRatio     float64
}

// Outcome is the terminal result recorded for a single task. Every task
// produces exactly one Outcome.
type Outcome struct {
	TaskID          uuid.UUID
	SourcePath      string
	DestPath        string
	Status          Status
	OriginalBytes   int64
	CompressedBytes int64
	SavedPercent    float64
	Reason          string
	Err             error
}

// Processor executes one task to completion. Implementations must catch
// their own errors and report them through the Outcome; Process never
// panics the caller.
type Processor interface {
	Process(ctx context.Context, task Task) Outcome
}

// ProgressFunc is invoked once per outcome as it arrives, from the
// reporter goroutine only.
type ProgressFunc func(outcome Outcome)

// BuildTasks converts enumerated source paths into tasks with destination
// paths mirroring the input tree under outputRoot. Re-encoded formats get
// their extension mapped (e.g. .bmp sources produce .jpg destinations).
func BuildTasks(files []string, inputRoot, outputRoot string, quality, maxDimension int, minRatio float64) ([]Task, error) {
	absInput, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve input root: %w", err)
	}
	absOutput, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}

	tasks := make([]Task, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, src := range files {
		rel, err := filepath.Rel(absInput, src)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", src, err)
		}
		dest := codec.OutputPathFor(absOutput, rel)
		if prev, ok := seen[dest]; ok {
			return nil, fmt.Errorf("destination collision: %s and %s both map to %s", prev, src, dest)
		}
		seen[dest] = src

		tasks = append(tasks, Task{
			ID:           uuid.New(),
			SourcePath:   src,
			DestPath:     dest,
			Quality:      quality,
			MaxDimension: maxDimension,
			MinRatio:     minRatio,
		})
	}
	return tasks, nil
}
