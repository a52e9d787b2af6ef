package statistics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics contains all statistics for a compression run.
type Statistics struct {
	TotalFiles      int64
	FilesCompressed int64
	FilesSkipped    int64
	FilesFailed     int64

	BytesIn  int64
	BytesOut int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	Errors []FileError

	mutex sync.RWMutex

	FileTypeStats map[string]int64
}

// FileError represents a per-file failure recorded during processing.
type FileError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// Snapshot is a read-only copy of the run counters, safe to serialize.
type Snapshot struct {
	TotalFiles      int64   `json:"total_files"`
	FilesCompressed int64   `json:"files_compressed"`
	FilesSkipped    int64   `json:"files_skipped"`
	FilesFailed     int64   `json:"files_failed"`
	BytesIn         int64   `json:"bytes_in"`
	BytesOut        int64   `json:"bytes_out"`
	BytesSaved      int64   `json:"bytes_saved"`
	SavedPercent    float64 `json:"saved_percent"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:     time.Now(),
		FileTypeStats: make(map[string]int64),
		Errors:        make([]FileError, 0),
	}
}

// SetTotalFiles records the number of files enumerated for this run.
func (s *Statistics) SetTotalFiles(n int64) {
	atomic.StoreInt64(&s.TotalFiles, n)
}

// IncrementCompressed increases the count of compressed files by 1.
func (s *Statistics) IncrementCompressed() {
	atomic.AddInt64(&s.FilesCompressed, 1)
}

// IncrementSkipped increases the count of skipped files by 1.
func (s *Statistics) IncrementSkipped() {
	atomic.AddInt64(&s.FilesSkipped, 1)
}

// IncrementFailed increases the count of failed files by 1.
func (s *Statistics) IncrementFailed() {
	atomic.AddInt64(&s.FilesFailed, 1)
}

// AddBytes adds a file's input and output byte counts to the totals.
func (s *Statistics) AddBytes(in, out int64) {
	atomic.AddInt64(&s.BytesIn, in)
	atomic.AddInt64(&s.BytesOut, out)
}

// IncrementFileType increases the count for a specific file type by 1.
func (s *Statistics) IncrementFileType(fileType string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.FileTypeStats[fileType]++
}

// AddError records a per-file failure.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, FileError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// ProcessedCount returns the number of files that have produced an outcome.
func (s *Statistics) ProcessedCount() int64 {
	return atomic.LoadInt64(&s.FilesCompressed) +
		atomic.LoadInt64(&s.FilesSkipped) +
		atomic.LoadInt64(&s.FilesFailed)
}

// BytesSaved returns the aggregate byte difference between inputs and
// outputs. Positive means outputs are smaller.
func (s *Statistics) BytesSaved() int64 {
	return atomic.LoadInt64(&s.BytesIn) - atomic.LoadInt64(&s.BytesOut)
}

// OverallSavedPercent returns the aggregate savings as a percentage of
// total input bytes.
func (s *Statistics) OverallSavedPercent() float64 {
	in := atomic.LoadInt64(&s.BytesIn)
	if in <= 0 {
		return 0
	}
	return float64(s.BytesSaved()) * 100 / float64(in)
}

// Finalize calculates final statistics such as duration and files per second.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	processed := s.ProcessedCount()
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(processed) / s.Duration.Seconds()
	}
}

// GetSnapshot returns a copy of the current counters.
func (s *Statistics) GetSnapshot() Snapshot {
	s.mutex.RLock()
	duration := s.Duration
	s.mutex.RUnlock()
	if duration == 0 {
		duration = time.Since(s.StartTime)
	}

	return Snapshot{
		TotalFiles:      atomic.LoadInt64(&s.TotalFiles),
		FilesCompressed: atomic.LoadInt64(&s.FilesCompressed),
		FilesSkipped:    atomic.LoadInt64(&s.FilesSkipped),
		FilesFailed:     atomic.LoadInt64(&s.FilesFailed),
		BytesIn:         atomic.LoadInt64(&s.BytesIn),
		BytesOut:        atomic.LoadInt64(&s.BytesOut),
		BytesSaved:      s.BytesSaved(),
		SavedPercent:    s.OverallSavedPercent(),
		DurationSeconds: duration.Seconds(),
	}
}

// GetSummary returns a formatted summary of the run.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	duration := s.Duration
	filesPerSecond := s.FilesPerSecond
	s.mutex.RUnlock()

	return fmt.Sprintf(`Image Compressor Run Summary:

Files:
		Total Enumerated: %d
		Compressed: %d
		Skipped: %d
		Failed: %d

Size:
		Total Input: %s
		Total Output: %s
		Saved: %s (%.1f%%)

Performance:
		Duration: %v
		Files/Second: %.2f`,
		atomic.LoadInt64(&s.TotalFiles),
		atomic.LoadInt64(&s.FilesCompressed),
		atomic.LoadInt64(&s.FilesSkipped),
		atomic.LoadInt64(&s.FilesFailed),
		formatBytes(atomic.LoadInt64(&s.BytesIn)),
		formatBytes(atomic.LoadInt64(&s.BytesOut)),
		formatBytes(s.BytesSaved()),
		s.OverallSavedPercent(),
		duration,
		filesPerSecond)
}

// GetFileTypeBreakdown returns a formatted breakdown of file types processed.
func (s *Statistics) GetFileTypeBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.FileTypeStats) == 0 {
		return "No file type statistics available"
	}

	result := "File Type Breakdown:\n"
	for fileType, count := range s.FileTypeStats {
		result += fmt.Sprintf("  %s: %d\n", fileType, count)
	}
	return result
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// GetFilesFailed returns the number of failed files.
func (s *Statistics) GetFilesFailed() int64 {
	return atomic.LoadInt64(&s.FilesFailed)
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	negative := bytes < 0
	if negative {
		bytes = -bytes
	}
	var formatted string
	if bytes < unit {
		formatted = fmt.Sprintf("%d B", bytes)
	} else {
		div, exp := int64(unit), 0
		for n := bytes / unit; n >= unit; n /= unit {
			div *= unit
			exp++
		}
		formatted = fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
	}
	if negative {
		return "-" + formatted
	}
	return formatted
}
