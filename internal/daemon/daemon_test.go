package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reclaim/internal/config"
	"reclaim/internal/fstopo"
	"reclaim/internal/logging"
	"reclaim/internal/orphan"
	"reclaim/internal/quarantine"
	"reclaim/internal/scheduler"
	"reclaim/internal/testsupport"
)

func newTestDaemon(t *testing.T) (*Daemon, *config.Config, *quarantine.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	logger := logging.NewNop()
	topology := fstopo.New(cfg.Paths.FallbackQuarantineDir, logger)
	store := testsupport.MustOpenStoreWithResolver(t, cfg, topology)
	hist := &testsupport.FakeHistory{}
	detector := orphan.NewDetector(cfg, hist, store, logger)
	sched := scheduler.New(cfg, hist, detector, logger)

	d, err := New(cfg, store, topology, detector, sched, hist, nil, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d, cfg, store
}

func waitForOperation(t *testing.T, d *Daemon, kind OpKind) OperationStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, ok := d.OperationStatus(kind)
		if ok && !status.Running {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s operation did not finish", kind)
	return OperationStatus{}
}

func TestDaemonStartStop(t *testing.T) {
	d, _, _ := newTestDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should report running")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start should fail while running")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon should report stopped")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	d, cfg, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	logger := logging.NewNop()
	topology := fstopo.New(cfg.Paths.FallbackQuarantineDir, logger)
	store := testsupport.MustOpenStoreWithResolver(t, cfg, topology)
	hist := &testsupport.FakeHistory{}
	detector := orphan.NewDetector(cfg, hist, store, logger)
	sched := scheduler.New(cfg, hist, detector, logger)
	second, err := New(cfg, store, topology, detector, sched, hist, nil, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon instance should fail to acquire the lock")
	}
}

func TestStartScanQuarantinesOrphans(t *testing.T) {
	d, cfg, store := newTestDaemon(t)
	strandedOrig := filepath.Join(cfg.Paths.RecordingsDir, "TV", "gone.mpg.orig")
	testsupport.WriteFile(t, strandedOrig, 64)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	id, err := d.StartScan(false)
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	status := waitForOperation(t, d, OpScan)
	if status.ID != id {
		t.Errorf("status id = %s, want %s", status.ID, id)
	}
	if status.Error != "" {
		t.Fatalf("scan failed: %s", status.Error)
	}

	if _, err := os.Stat(strandedOrig); !os.IsNotExist(err) {
		t.Error("orphan should have been moved to quarantine")
	}
	items, err := store.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 quarantined item, got %d", len(items))
	}
}

func TestStartScanDryRunMovesNothing(t *testing.T) {
	d, cfg, store := newTestDaemon(t)
	strandedOrig := filepath.Join(cfg.Paths.RecordingsDir, "TV", "gone.mpg.orig")
	testsupport.WriteFile(t, strandedOrig, 64)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := d.StartScan(true); err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	status := waitForOperation(t, d, OpScan)
	if status.Error != "" {
		t.Fatalf("scan failed: %s", status.Error)
	}

	if _, err := os.Stat(strandedOrig); err != nil {
		t.Error("dry-run must not move files")
	}
	items, err := store.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("dry-run must not record items, got %d", len(items))
	}
}

func TestOperationKindsAreIndependent(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := d.StartSweep(); err != nil {
		t.Fatalf("StartSweep: %v", err)
	}
	waitForOperation(t, d, OpDelete)

	// Cancelling the delete slot after completion reports false and leaves
	// other kinds untouched.
	if d.CancelOperation(OpDelete) {
		t.Error("cancelling a finished operation should report false")
	}
	if d.CancelOperation(OpAudit) {
		t.Error("cancelling an idle kind should report false")
	}
}

func TestStartHandlersRejectedAfterStop(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()

	if _, err := d.StartScan(false); err == nil {
		t.Error("StartScan after Stop should fail")
	}
	if _, err := d.StartSweep(); err == nil {
		t.Error("StartSweep after Stop should fail")
	}
}

func TestStopWithConcurrentSweepStarts(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Hammer the worker reservation while Stop tears the context down. Every
	// sweep either gets a slot Stop waits for, or is rejected outright.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			if _, err := d.StartSweep(); err != nil {
				return
			}
			for {
				status, ok := d.OperationStatus(OpDelete)
				if ok && !status.Running {
					break
				}
				time.Sleep(time.Millisecond)
			}
		}
	}()
	time.Sleep(20 * time.Millisecond)
	d.Stop()
	<-done

	if d.Running() {
		t.Fatal("daemon should report stopped")
	}
}

func TestStartAuditRequiresInventory(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := d.StartAudit(false); err == nil {
		t.Fatal("audit without an inventory service should fail")
	}
}

func TestDaemonStatusSnapshot(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := d.Status(context.Background())
	if !status.Running {
		t.Error("status should report running")
	}
	if status.DatabasePath == "" {
		t.Error("status should carry the database path")
	}
	if status.PID != os.Getpid() {
		t.Errorf("status pid = %d, want %d", status.PID, os.Getpid())
	}
}
