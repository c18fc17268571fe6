// Package scheduler decides when automatic cleanup may run and drives the
// periodic check loop. It is single-threaded cooperative: one check at a
// time, one cleanup pass at a time.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reclaim/internal/config"
	"reclaim/internal/history"
	"reclaim/internal/logging"
	"reclaim/internal/orphan"
)

// CleanupRunner executes one cleanup pass. Implemented by orphan.Detector.
type CleanupRunner interface {
	RunCleanup(ctx context.Context, dryRun, purgeHistory bool) (*orphan.CleanupResult, error)
}

// Settings is the mutable scheduler configuration, adjustable at runtime
// through the control socket.
type Settings struct {
	Enabled       bool          `json:"enabled"`
	CheckInterval time.Duration `json:"check_interval"`
	IdleThreshold time.Duration `json:"idle_threshold"`
	DryRun        bool          `json:"dry_run"`
	PurgeHistory  bool          `json:"purge_history"`
}

// Status reports scheduler state for operator inspection.
type Status struct {
	Settings    Settings  `json:"settings"`
	LastCheck   time.Time `json:"last_check"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Scheduler owns the cleanup gating state. All fields behind mu; no ambient
// globals.
type Scheduler struct {
	mu          sync.Mutex
	settings    Settings
	lastCheck   time.Time
	lastCleanup time.Time

	history history.Store
	runner  CleanupRunner
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a scheduler seeded from configuration.
func New(cfg *config.Config, hist history.Store, runner CleanupRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		settings: Settings{
			Enabled:       cfg.Cleanup.Enabled,
			CheckInterval: time.Duration(cfg.Cleanup.CheckIntervalMinutes) * time.Minute,
			IdleThreshold: time.Duration(cfg.Cleanup.IdleThresholdMinutes) * time.Minute,
			DryRun:        cfg.Cleanup.DryRun,
			PurgeHistory:  cfg.Cleanup.PurgeHistory,
		},
		history: hist,
		runner:  runner,
		logger:  logging.NewComponentLogger(logger, "scheduler"),
		now:     time.Now,
	}
}

// Settings returns a copy of the current settings.
func (s *Scheduler) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the scheduler settings.
func (s *Scheduler) UpdateSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.logger.Info("scheduler settings updated",
		logging.Bool("enabled", settings.Enabled),
		logging.Duration("check_interval", settings.CheckInterval),
		logging.Duration("idle_threshold", settings.IdleThreshold),
		logging.Bool(logging.FieldDryRun, settings.DryRun))
}

// Status returns the scheduler state snapshot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Settings: s.settings, LastCheck: s.lastCheck, LastCleanup: s.lastCleanup}
}

// ShouldRun reports whether an automatic cleanup pass may start now: the
// scheduler is enabled, the check interval has elapsed since the last
// cleanup, and the pipeline is idle.
func (s *Scheduler) ShouldRun(ctx context.Context) (bool, error) {
	s.mu.Lock()
	settings := s.settings
	lastCleanup := s.lastCleanup
	s.mu.Unlock()

	if !settings.Enabled {
		return false, nil
	}
	now := s.now()
	if !lastCleanup.IsZero() && now.Sub(lastCleanup) < settings.CheckInterval {
		return false, nil
	}
	idle, err := s.isIdle(ctx, now, settings.IdleThreshold)
	if err != nil {
		return false, err
	}
	return idle, nil
}

// isIdle holds when no execution is running and the most recent one ended at
// least the idle threshold ago. Cleanup must never race a live captioning
// job over the same files.
func (s *Scheduler) isIdle(ctx context.Context, now time.Time, threshold time.Duration) (bool, error) {
	if s.history == nil {
		return true, nil
	}
	running, err := s.history.Query(ctx, history.Query{Status: history.StatusRunning, Limit: 1})
	if err != nil {
		return false, err
	}
	if len(running) > 0 {
		return false, nil
	}
	recent, err := s.history.Query(ctx, history.Query{Limit: 1})
	if err != nil {
		return false, err
	}
	if len(recent) == 0 {
		return true, nil
	}
	ended := recent[0].EndedAt
	if ended.IsZero() {
		// No end timestamp means the execution never finished cleanly;
		// treat it as recent activity.
		return false, nil
	}
	return now.Sub(ended) >= threshold, nil
}

// RunIfNeeded stamps the check time, and when ShouldRun holds, executes one
// cleanup pass. The cleanup timestamp advances only on success, so a failed
// pass is retried at the next check. A nil result with nil error means the
// check was skipped.
func (s *Scheduler) RunIfNeeded(ctx context.Context) (*orphan.CleanupResult, error) {
	s.mu.Lock()
	s.lastCheck = s.now()
	s.mu.Unlock()

	run, err := s.ShouldRun(ctx)
	if err != nil {
		return nil, err
	}
	if !run {
		return nil, nil
	}

	settings := s.Settings()
	s.logger.Info("starting automatic cleanup", logging.Bool(logging.FieldDryRun, settings.DryRun))
	result, err := s.runner.RunCleanup(ctx, settings.DryRun, settings.PurgeHistory)
	if err != nil {
		s.logger.Error("automatic cleanup failed", logging.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.lastCleanup = s.now()
	s.mu.Unlock()
	return result, nil
}
