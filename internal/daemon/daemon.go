package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reclaim/internal/config"
	"reclaim/internal/fstopo"
	"reclaim/internal/history"
	"reclaim/internal/inventory"
	"reclaim/internal/logging"
	"reclaim/internal/orphan"
	"reclaim/internal/quarantine"
	"reclaim/internal/scheduler"
)

// Daemon owns the background loops and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *quarantine.Store
	topology  *fstopo.Topology
	detector  *orphan.Detector
	sched     *scheduler.Scheduler
	history   history.Store
	inventory inventory.Service

	ops      *operations
	lockPath string
	lock     *flock.Flock
	scanLock *flock.Flock
	monitor  *storageMonitor

	running atomic.Bool
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool                  `json:"running"`
	PID          int                   `json:"pid"`
	LockFilePath string                `json:"lock_file_path"`
	DatabasePath string                `json:"database_path"`
	Quarantine   quarantine.Stats      `json:"quarantine"`
	Scheduler    scheduler.Status      `json:"scheduler"`
	Storage      fstopo.Report         `json:"storage"`
	Operations   []OperationStatus     `json:"operations"`
	ScanPaths    []quarantine.ScanPath `json:"scan_paths"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *quarantine.Store, topology *fstopo.Topology, detector *orphan.Detector, sched *scheduler.Scheduler, hist history.Store, inv inventory.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || topology == nil || detector == nil || sched == nil {
		return nil, errors.New("daemon requires config, store, topology, detector, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "reclaimd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		topology:  topology,
		detector:  detector,
		sched:     sched,
		history:   hist,
		inventory: inv,
		ops:       newOperations(),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		scanLock:  flock.New(filepath.Join(cfg.Paths.StateDir, "scan.lock")),
	}
	d.monitor = newStorageMonitor(cfg, logger, d.refreshTopology)
	return d, nil
}

// Start acquires the instance lock and launches the background loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reclaim daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.mu.Unlock()

	d.registerScanPaths(runCtx)

	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "reclaim*.log*",
		Exclude: []string{d.LogPath()},
	})

	if err := d.monitor.Start(runCtx); err != nil {
		d.logger.Warn("storage monitor unavailable", logging.Error(err))
	}

	d.wg.Add(2)
	go d.schedulerLoop(runCtx)
	go d.sweeperLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("reclaim daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()))
	return nil
}

// Stop halts the background loops and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	d.mu.Unlock()
	d.monitor.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reclaim daemon stopped")
}

// acquireWorker reserves a worker slot against the running daemon context.
// The reservation happens under the same lock Stop uses for teardown, so a
// concurrent Stop either sees it and waits for the worker, or wins and the
// caller gets an error. A successful call must be paired with wg.Done.
func (d *Daemon) acquireWorker() (context.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return nil, errors.New("daemon not started")
	}
	d.wg.Add(1)
	return d.ctx, nil
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon loops are active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status assembles the daemon state snapshot.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		DatabasePath: d.store.Path(),
		Scheduler:    d.sched.Status(),
		Storage:      d.topology.Analysis(),
		Operations:   d.ops.snapshot(),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.Quarantine = stats
	} else {
		d.logger.Warn("quarantine stats unavailable", logging.Error(err))
	}
	if paths, err := d.store.ListScanPaths(ctx, false); err == nil {
		status.ScanPaths = paths
	}
	return status
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.cfg.Paths.LogDir, "reclaim.log")
}

// Scheduler exposes the cleanup scheduler for IPC configuration calls.
func (d *Daemon) Scheduler() *scheduler.Scheduler {
	return d.sched
}

// Store exposes the quarantine store for IPC handlers.
func (d *Daemon) Store() *quarantine.Store {
	return d.store
}

// CancelOperation cancels the running operation of the given kind.
func (d *Daemon) CancelOperation(kind OpKind) bool {
	return d.ops.cancelKind(kind)
}

// OperationStatus returns the state of the latest operation of the given
// kind.
func (d *Daemon) OperationStatus(kind OpKind) (OperationStatus, bool) {
	return d.ops.status(kind)
}

// registerScanPaths registers every enabled scan root plus the recordings
// directory with the topology so quarantine placement is device-local.
func (d *Daemon) registerScanPaths(ctx context.Context) {
	roots := []string{d.cfg.Paths.RecordingsDir}
	if paths, err := d.store.ListScanPaths(ctx, true); err == nil {
		for _, sp := range paths {
			roots = append(roots, sp.Path)
		}
	} else {
		d.logger.Warn("listing scan paths failed", logging.Error(err))
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if _, err := d.topology.Register(root); err != nil {
			d.logger.Warn("scan path unavailable, using fallback quarantine",
				logging.String(logging.FieldPath, root),
				logging.Error(err))
		}
	}
}

// refreshTopology re-registers scan paths and refreshes capacity snapshots.
// Invoked by the storage monitor when block devices come and go.
func (d *Daemon) refreshTopology(ctx context.Context) {
	d.registerScanPaths(ctx)
	d.topology.RefreshUsage()
}

// schedulerLoop wakes on the check interval and runs cleanup when due.
func (d *Daemon) schedulerLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Cleanup.CheckIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runScheduledCleanup(ctx)
		}
	}
}

// runScheduledCleanup executes one scheduler check under the scan lock so an
// automatic pass never overlaps a manual scan from another process.
func (d *Daemon) runScheduledCleanup(ctx context.Context) {
	locked, err := d.scanLock.TryLock()
	if err != nil {
		d.logger.Warn("scan lock unavailable", logging.Error(err))
		return
	}
	if !locked {
		d.logger.Debug("skipping scheduled check, scan in progress elsewhere")
		return
	}
	defer func() {
		if err := d.scanLock.Unlock(); err != nil {
			d.logger.Warn("failed to release scan lock", logging.Error(err))
		}
	}()

	result, err := d.sched.RunIfNeeded(ctx)
	if err != nil {
		d.logger.Error("scheduled cleanup failed", logging.Error(err))
		return
	}
	if result != nil {
		d.logger.Info("scheduled cleanup completed",
			logging.Int("orig", result.OrigCount),
			logging.Int("srt", result.SrtCount),
			logging.Int64("bytes", result.BytesRecovered))
	}
}

// sweeperLoop deletes expired quarantine items on a fixed interval.
func (d *Daemon) sweeperLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Cleanup.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := d.store.DeleteExpired(ctx); err != nil {
				d.logger.Error("expiration sweep failed", logging.Error(err))
			} else if removed > 0 {
				d.logger.Info("expiration sweep completed", logging.Int("removed", removed))
			}
		}
	}
}
