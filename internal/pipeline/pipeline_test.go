package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"image-compressor-go/internal/statistics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type processorFunc func(ctx context.Context, task Task) Outcome

func (f processorFunc) Process(ctx context.Context, task Task) Outcome {
	return f(ctx, task)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{
			ID:           uuid.New(),
			SourcePath:   filepath.Join("/in", "file"+string(rune('a'+i%26))+".jpg"),
			DestPath:     filepath.Join("/out", "file"+string(rune('a'+i%26))+".jpg"),
			Quality:      85,
			MaxDimension: 1920,
		}
	}
	return tasks
}

// statusByIndex fakes a processor whose outcome depends on task position.
func statusByIndex(tasks []Task) Processor {
	index := make(map[uuid.UUID]int, len(tasks))
	for i, task := range tasks {
		index[task.ID] = i
	}
	return processorFunc(func(ctx context.Context, task Task) Outcome {
		i := index[task.ID]
		outcome := Outcome{
			TaskID:        task.ID,
			SourcePath:    task.SourcePath,
			DestPath:      task.DestPath,
			OriginalBytes: 1000,
		}
		switch i % 3 {
		case 0:
			outcome.Status = StatusCompressed
			outcome.CompressedBytes = 600
			outcome.SavedPercent = 40
		case 1:
			outcome.Status = StatusSkipped
			outcome.CompressedBytes = 1000
			outcome.Reason = "insufficient compression"
		default:
			outcome.Status = StatusFailed
			outcome.Reason = "decode"
		}
		return outcome
	})
}

func TestRunProducesOneOutcomePerTask(t *testing.T) {
	tasks := makeTasks(30)
	proc := statusByIndex(tasks)

	for _, workers := range []int{1, 4, 16} {
		stats := statistics.NewStatistics()
		var calls int64
		counting := processorFunc(func(ctx context.Context, task Task) Outcome {
			atomic.AddInt64(&calls, 1)
			return proc.Process(ctx, task)
		})

		runner := NewRunner(workers, quietLogger(), stats, nil)
		runner.Run(context.Background(), tasks, counting)

		if calls != int64(len(tasks)) {
			t.Errorf("workers=%d: processor called %d times, expected %d", workers, calls, len(tasks))
		}
		if stats.ProcessedCount() != int64(len(tasks)) {
			t.Errorf("workers=%d: processed %d outcomes, expected %d", workers, stats.ProcessedCount(), len(tasks))
		}
	}
}

func TestRunAggregatesAreWorkerCountIndependent(t *testing.T) {
	tasks := makeTasks(60)
	proc := statusByIndex(tasks)

	var reference statistics.Snapshot
	for i, workers := range []int{1, 4, 16} {
		stats := statistics.NewStatistics()
		runner := NewRunner(workers, quietLogger(), stats, nil)
		runner.Run(context.Background(), tasks, proc)

		snap := stats.GetSnapshot()
		snap.DurationSeconds = 0
		if i == 0 {
			reference = snap
			continue
		}
		if snap != reference {
			t.Errorf("workers=%d produced %+v, expected %+v", workers, snap, reference)
		}
	}
}

func TestRunSurvivesPanickingTask(t *testing.T) {
	tasks := makeTasks(10)
	victim := tasks[3].ID

	proc := processorFunc(func(ctx context.Context, task Task) Outcome {
		if task.ID == victim {
			panic("corrupt image state")
		}
		return Outcome{
			TaskID:          task.ID,
			SourcePath:      task.SourcePath,
			Status:          StatusCompressed,
			OriginalBytes:   100,
			CompressedBytes: 50,
		}
	})

	stats := statistics.NewStatistics()
	runner := NewRunner(4, quietLogger(), stats, nil)
	runner.Run(context.Background(), tasks, proc)

	if stats.GetFilesFailed() != 1 {
		t.Errorf("expected exactly 1 failed outcome, got %d", stats.GetFilesFailed())
	}
	if stats.ProcessedCount() != int64(len(tasks)) {
		t.Errorf("processed %d, expected %d", stats.ProcessedCount(), len(tasks))
	}
}

func TestRunInvokesProgressPerOutcome(t *testing.T) {
	tasks := makeTasks(12)
	proc := statusByIndex(tasks)

	seen := make(map[uuid.UUID]int)
	stats := statistics.NewStatistics()
	runner := NewRunner(4, quietLogger(), stats, func(outcome Outcome) {
		seen[outcome.TaskID]++
	})
	runner.Run(context.Background(), tasks, proc)

	if len(seen) != len(tasks) {
		t.Fatalf("progress saw %d tasks, expected %d", len(seen), len(tasks))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("task %s reported %d times", id, n)
		}
	}
}

func TestRunEmptyTaskList(t *testing.T) {
	stats := statistics.NewStatistics()
	runner := NewRunner(4, quietLogger(), stats, nil)
	runner.Run(context.Background(), nil, statusByIndex(nil))

	if stats.ProcessedCount() != 0 {
		t.Errorf("expected no outcomes, got %d", stats.ProcessedCount())
	}
}

func TestBuildTasksMapsDestinations(t *testing.T) {
	files := []string{
		filepath.Join("/in", "a.jpg"),
		filepath.Join("/in", "sub", "b.bmp"),
	}
	tasks, err := BuildTasks(files, "/in", "/out", 85, 1920, 5)
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	if tasks[0].DestPath != filepath.Join("/out", "a.jpg") {
		t.Errorf("dest 0 = %s", tasks[0].DestPath)
	}
	if tasks[1].DestPath != filepath.Join("/out", "sub", "b.jpg") {
		t.Errorf("dest 1 = %s, expected re-encoded .jpg", tasks[1].DestPath)
	}
	for _, task := range tasks {
		if task.Quality != 85 || task.MaxDimension != 1920 || task.MinRatio != 5 {
			t.Errorf("task parameters not carried: %+v", task)
		}
		if task.ID == uuid.Nil {
			t.Error("task ID not assigned")
		}
	}
}

func TestBuildTasksDetectsDestinationCollision(t *testing.T) {
	files := []string{
		filepath.Join("/in", "photo.bmp"),
		filepath.Join("/in", "photo.tif"),
	}
	_, err := BuildTasks(files, "/in", "/out", 85, 1920, 0)
	if err == nil {
		t.Fatal("expected collision error, got nil")
	}
	if !strings.Contains(err.Error(), "collision") {
		t.Errorf("error %q does not mention collision", err)
	}
}
