package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reclaim/internal/logging"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "reclaim.log")

	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("quarantine created", logging.String("path", "/tmp/a.orig"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "quarantine created") {
		t.Fatalf("expected message in log output, got %q", out)
	}
	if !strings.Contains(out, "path=/tmp/a.orig") {
		t.Fatalf("expected flattened attr in log output, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestComponentLoggerPrefixesConsoleLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger := logging.NewComponentLogger(base, "scheduler")
	logger.Info("cleanup skipped")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "scheduler: cleanup skipped") {
		t.Fatalf("expected component prefix, got %q", string(data))
	}
}

func TestCleanupOldLogsPrunesExpired(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "reclaim-old.log")
	newPath := filepath.Join(dir, "reclaim-new.log")
	for _, p := range []string{oldPath, newPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{Dir: dir, Pattern: "reclaim-*.log"})

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log pruned, stat err=%v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("expected new log kept: %v", err)
	}
}
