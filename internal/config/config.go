package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir              string `toml:"state_dir"`
	LogDir                string `toml:"log_dir"`
	RecordingsDir         string `toml:"recordings_dir"`
	FallbackQuarantineDir string `toml:"fallback_quarantine_dir"`
}

// Cleanup contains configuration for the automatic cleanup scheduler.
type Cleanup struct {
	Enabled              bool `toml:"enabled"`
	CheckIntervalMinutes int  `toml:"check_interval_minutes"`
	IdleThresholdMinutes int  `toml:"idle_threshold_minutes"`
	DryRun               bool `toml:"dry_run"`
	ExpirationDays       int  `toml:"expiration_days"`
	PurgeHistory         bool `toml:"purge_history"`
	SweepIntervalMinutes int  `toml:"sweep_interval_minutes"`
}

// Scan contains configuration for deep filesystem scans.
type Scan struct {
	MediaExtensions []string `toml:"media_extensions"`
}

// Inventory contains configuration for the DVR inventory service.
type Inventory struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// History contains configuration for the pipeline execution-history database.
type History struct {
	DBPath string `toml:"db_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reclaim.
//
// Configuration sections by subsystem:
//   - Paths: state, log, recordings, and fallback quarantine directories
//   - Cleanup: automatic cleanup scheduling, dry-run, quarantine expiration
//   - Scan: media extensions recognized when matching subtitle siblings
//   - Inventory: DVR inventory service endpoint used by audits
//   - History: pipeline execution-history database consumed by safe detection
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Cleanup   Cleanup   `toml:"cleanup"`
	Scan      Scan      `toml:"scan"`
	Inventory Inventory `toml:"inventory"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reclaim/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The returned string is the
// resolved config path; the bool reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reclaim.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RecordingsDir) != "" {
		if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
			return fmt.Errorf("paths.recordings_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.FallbackQuarantineDir) == "" {
		c.Paths.FallbackQuarantineDir = defaultFallbackQuarantineDir
	}
	if c.Paths.FallbackQuarantineDir, err = expandPath(c.Paths.FallbackQuarantineDir); err != nil {
		return fmt.Errorf("paths.fallback_quarantine_dir: %w", err)
	}
	if strings.TrimSpace(c.History.DBPath) != "" {
		if c.History.DBPath, err = expandPath(c.History.DBPath); err != nil {
			return fmt.Errorf("history.db_path: %w", err)
		}
	}
	c.Inventory.URL = strings.TrimRight(strings.TrimSpace(c.Inventory.URL), "/")
	c.normalizeScan()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeScan() {
	if len(c.Scan.MediaExtensions) == 0 {
		c.Scan.MediaExtensions = defaultMediaExtensions()
	}
	normalized := make([]string, 0, len(c.Scan.MediaExtensions))
	for _, ext := range c.Scan.MediaExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Scan.MediaExtensions = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"cleanup.check_interval_minutes": c.Cleanup.CheckIntervalMinutes,
		"cleanup.idle_threshold_minutes": c.Cleanup.IdleThresholdMinutes,
		"cleanup.expiration_days":        c.Cleanup.ExpirationDays,
		"cleanup.sweep_interval_minutes": c.Cleanup.SweepIntervalMinutes,
		"inventory.timeout_seconds":      c.Inventory.TimeoutSeconds,
	}); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, value)
		}
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation. The
// fallback quarantine directory is created on a best-effort basis so the
// daemon can run when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.FallbackQuarantineDir) != "" {
		_ = os.MkdirAll(c.Paths.FallbackQuarantineDir, 0o755)
	}
	return nil
}

// DatabasePath returns the location of the reclaim state database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "reclaim.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
