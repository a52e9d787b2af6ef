package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"image-compressor-go/internal/statistics"

	"github.com/sirupsen/logrus"
)

// Runner distributes tasks across a fixed pool of workers and drains
// their outcomes through a single reporter goroutine.
type Runner struct {
	workers  int
	logger   *logrus.Logger
	stats    *statistics.Statistics
	progress ProgressFunc
}

// NewRunner returns a new Runner. The progress hook may be nil.
func NewRunner(workers int, logger *logrus.Logger, stats *statistics.Statistics, progress ProgressFunc) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		workers:  workers,
		logger:   logger,
		stats:    stats,
		progress: progress,
	}
}

// Run executes all tasks and blocks until every task has produced an
// outcome and the reporter has recorded it. A task failure never aborts
// sibling tasks; outcomes are recorded in arrival order.
func (r *Runner) Run(ctx context.Context, tasks []Task, proc Processor) {
	r.stats.SetTotalFiles(int64(len(tasks)))
	if len(tasks) == 0 {
		r.stats.Finalize()
		return
	}

	jobs := make(chan Task, len(tasks))
	outcomes := make(chan Outcome, len(tasks))

	var wg sync.WaitGroup
	wg.Add(r.workers)
	for w := 0; w < r.workers; w++ {
		go func() {
			defer wg.Done()
			for task := range jobs {
				outcomes <- r.safeProcess(ctx, proc, task)
			}
		}()
	}

	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Single consumer: workers never touch the stats or the log stream.
	for outcome := range outcomes {
		r.record(outcome)
	}

	r.stats.Finalize()
}

// safeProcess runs the processor and converts a panic into a Failed
// outcome so one bad file cannot take down the pool.
func (r *Runner) safeProcess(ctx context.Context, proc Processor, task Task) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Outcome{
				TaskID:     task.ID,
				SourcePath: task.SourcePath,
				DestPath:   task.DestPath,
				Status:     StatusFailed,
				Reason:     "panic during processing",
				Err:        fmt.Errorf("panic: %v", rec),
			}
		}
	}()
	return proc.Process(ctx, task)
}

// record accumulates one outcome into the statistics and emits the
// per-file progress line.
func (r *Runner) record(outcome Outcome) {
	name := filepath.Base(outcome.SourcePath)
	ext := strings.ToUpper(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))
	r.stats.IncrementFileType(ext)

	switch outcome.Status {
	case StatusCompressed:
		r.stats.IncrementCompressed()
		r.stats.AddBytes(outcome.OriginalBytes, outcome.CompressedBytes)
		r.logger.WithFields(logrus.Fields{
			"file":    outcome.SourcePath,
			"output":  outcome.DestPath,
			"in":      outcome.OriginalBytes,
			"out":     outcome.CompressedBytes,
			"saved_%": fmt.Sprintf("%.1f", outcome.SavedPercent),
		}).Infof("Compressed %s", name)

	case StatusSkipped:
		r.stats.IncrementSkipped()
		r.stats.AddBytes(outcome.OriginalBytes, outcome.CompressedBytes)
		r.logger.WithFields(logrus.Fields{
			"file":   outcome.SourcePath,
			"reason": outcome.Reason,
		}).Infof("Skipped %s", name)

	case StatusFailed:
		r.stats.IncrementFailed()
		operation := outcome.Reason
		if operation == "" {
			operation = "process"
		}
		errMsg := ""
		if outcome.Err != nil {
			errMsg = outcome.Err.Error()
		}
		r.stats.AddError(outcome.SourcePath, operation, errMsg)
		r.logger.WithFields(logrus.Fields{
			"file":   outcome.SourcePath,
			"reason": outcome.Reason,
		}).Errorf("Failed %s: %v", name, outcome.Err)
	}

	if r.progress != nil {
		r.progress(outcome)
	}
}
