package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reclaim/internal/config"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.Cleanup.Enabled {
		t.Fatal("cleanup should default to enabled")
	}
	if cfg.Cleanup.ExpirationDays != 30 {
		t.Fatalf("unexpected default expiration days: %d", cfg.Cleanup.ExpirationDays)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`state_dir = "` + filepath.Join(dir, "state") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[cleanup]",
		"check_interval_minutes = 15",
		"dry_run = true",
		"[scan]",
		`media_extensions = ["MKV", "mp4"]`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %s, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Cleanup.CheckIntervalMinutes != 15 {
		t.Fatalf("expected overlayed interval, got %d", cfg.Cleanup.CheckIntervalMinutes)
	}
	if !cfg.Cleanup.DryRun {
		t.Fatal("expected dry_run true")
	}
	// Extensions normalize to lowercase dotted form.
	want := []string{".mkv", ".mp4"}
	if len(cfg.Scan.MediaExtensions) != len(want) {
		t.Fatalf("unexpected extensions: %v", cfg.Scan.MediaExtensions)
	}
	for i, ext := range want {
		if cfg.Scan.MediaExtensions[i] != ext {
			t.Fatalf("extension %d: want %s got %s", i, ext, cfg.Scan.MediaExtensions[i])
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, _, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected default log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[cleanup]\ncheck_interval_minutes = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for zero interval")
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}
