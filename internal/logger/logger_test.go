package logger

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "chatty"
	cfg.FilePath = ""

	if _, err := NewLogger(cfg); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "run.log")
	cfg.Level = "debug"

	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, expected debug", log.GetLevel())
	}

	log.Info("test line")
}

func TestWithTaskFields(t *testing.T) {
	log := logrus.New()
	entry := WithTask(log, "/tmp/a.jpg", "task-1")

	if entry.Data["file"] != "/tmp/a.jpg" {
		t.Errorf("file field = %v", entry.Data["file"])
	}
	if entry.Data["task"] != "task-1" {
		t.Errorf("task field = %v", entry.Data["task"])
	}
}
