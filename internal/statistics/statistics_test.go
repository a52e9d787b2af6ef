package statistics

import (
	"strings"
	"sync"
	"testing"
)

func TestCountsSumToProcessed(t *testing.T) {
	s := NewStatistics()
	s.SetTotalFiles(6)

	s.IncrementCompressed()
	s.IncrementCompressed()
	s.IncrementCompressed()
	s.IncrementSkipped()
	s.IncrementSkipped()
	s.IncrementFailed()

	if got := s.ProcessedCount(); got != 6 {
		t.Errorf("ProcessedCount = %d, expected 6", got)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	s := NewStatistics()
	const workers = 16
	const perWorker = 100

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.IncrementCompressed()
				s.AddBytes(1000, 600)
			}
		}()
	}
	wg.Wait()

	if s.FilesCompressed != workers*perWorker {
		t.Errorf("FilesCompressed = %d, expected %d", s.FilesCompressed, workers*perWorker)
	}
	if s.BytesSaved() != workers*perWorker*400 {
		t.Errorf("BytesSaved = %d, expected %d", s.BytesSaved(), workers*perWorker*400)
	}
}

func TestOverallSavedPercent(t *testing.T) {
	s := NewStatistics()
	s.AddBytes(1000, 750)

	if got := s.OverallSavedPercent(); got != 25 {
		t.Errorf("OverallSavedPercent = %v, expected 25", got)
	}

	empty := NewStatistics()
	if got := empty.OverallSavedPercent(); got != 0 {
		t.Errorf("OverallSavedPercent with no bytes = %v, expected 0", got)
	}
}

func TestGetSummaryContainsCounts(t *testing.T) {
	s := NewStatistics()
	s.SetTotalFiles(3)
	s.IncrementCompressed()
	s.IncrementSkipped()
	s.IncrementFailed()
	s.AddBytes(2048, 1024)
	s.Finalize()

	summary := s.GetSummary()
	for _, fragment := range []string{"Total Enumerated: 3", "Compressed: 1", "Skipped: 1", "Failed: 1"} {
		if !strings.Contains(summary, fragment) {
			t.Errorf("summary missing %q:\n%s", fragment, summary)
		}
	}
}

func TestErrorSummary(t *testing.T) {
	s := NewStatistics()
	s.AddError("/tmp/a.jpg", "decode", "bad header")

	errSummary := s.GetErrorSummary()
	if !strings.Contains(errSummary, "/tmp/a.jpg") || !strings.Contains(errSummary, "decode") {
		t.Errorf("error summary missing details:\n%s", errSummary)
	}
	if s.GetFilesFailed() != 0 {
		t.Errorf("AddError should not bump FilesFailed")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
		{-2048, "-2.0 KB"},
	}
	for _, test := range tests {
		if got := formatBytes(test.bytes); got != test.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", test.bytes, got, test.expected)
		}
	}
}
