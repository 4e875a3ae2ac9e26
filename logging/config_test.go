package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/giygas/sheets-sync/config"
)

func TestRotatingLogger(t *testing.T) {
	tempDir := t.TempDir()

	rl := NewRotatingLogger(tempDir, 1)

	testMessage := "Test log message"
	if _, err := rl.Write([]byte(testMessage)); err != nil {
		t.Fatalf("Failed to write to log: %v", err)
	}

	expectedFileName := filepath.Join(tempDir, "app-"+getWeekKey(time.Now())+".log")
	content, err := os.ReadFile(expectedFileName)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if !strings.Contains(string(content), testMessage) {
		t.Errorf("Log file does not contain test message: %s", string(content))
	}

	if err := rl.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}
}

func TestGetWeekKey(t *testing.T) {
	testTime := time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)

	if weekKey := getWeekKey(testTime); weekKey != "2025-W41" {
		t.Errorf("Expected week key 2025-W41, got %s", weekKey)
	}

	// ISO weeks belong to the year of their Thursday
	if weekKey := getWeekKey(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)); weekKey != "2026-W53" {
		t.Errorf("Expected week key 2026-W53, got %s", weekKey)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	tempDir := t.TempDir()

	oldFile := filepath.Join(tempDir, "app-2020-W01.log")
	recentFile := filepath.Join(tempDir, "app-2099-W01.log")
	otherFile := filepath.Join(tempDir, "notes.txt")

	for _, f := range []string{oldFile, recentFile, otherFile} {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", f, err)
		}
	}

	old := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(oldFile, old, old); err != nil {
		t.Fatalf("Failed to age file: %v", err)
	}
	if err := os.Chtimes(otherFile, old, old); err != nil {
		t.Fatalf("Failed to age file: %v", err)
	}

	rl := NewRotatingLogger(tempDir, 1)
	if err := rl.cleanupOldLogs(); err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("Expected old log file to be removed")
	}
	if _, err := os.Stat(recentFile); err != nil {
		t.Error("Expected recent log file to be kept")
	}
	if _, err := os.Stat(otherFile); err != nil {
		t.Error("Expected non-log file to be kept")
	}
}

func TestSetupLoggerWithFile(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "logs")

	logger, file := SetupLogger(Options{Dir: tempDir, Env: config.EnvTest, RetentionWeeks: 1})
	if file == nil {
		t.Fatal("Expected a rotating log file")
	}
	defer file.Close()

	logger.Debug("debug line", "table", "pilots")

	content, err := os.ReadFile(filepath.Join(tempDir, "app-"+getWeekKey(time.Now())+".log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	// File handler is JSON at debug level even when the console is quiet
	if !strings.Contains(string(content), `"msg":"debug line"`) || !strings.Contains(string(content), `"table":"pilots"`) {
		t.Errorf("Expected JSON debug line in log file, got: %s", content)
	}
}

func TestSetupLoggerConsoleOnly(t *testing.T) {
	logger, file := SetupLogger(Options{Env: config.EnvTest})
	if logger == nil {
		t.Fatal("Expected a logger")
	}
	if file != nil {
		t.Error("Expected no log file when Dir is empty")
	}
}
