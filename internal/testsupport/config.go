package testsupport

import (
	"path/filepath"
	"testing"

	"reclaim/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfg.Paths.FallbackQuarantineDir = filepath.Join(base, "fallback-quarantine")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithDryRun enables cleanup dry-run mode on the test config.
func WithDryRun() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cleanup.DryRun = true
	}
}

// WithExpirationDays overrides the quarantine expiration window.
func WithExpirationDays(days int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cleanup.ExpirationDays = days
	}
}
