package ipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reclaim/internal/daemon"
	"reclaim/internal/fstopo"
	"reclaim/internal/logging"
	"reclaim/internal/orphan"
	"reclaim/internal/scheduler"
	"reclaim/internal/testsupport"
)

func newTestServer(t *testing.T) (*Client, *daemon.Daemon) {
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

	d, err := daemon.New(cfg, store, topology, detector, sched, hist, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	socket := filepath.Join(cfg.Paths.StateDir, "reclaimd.sock")
	server, err := NewServer(ctx, socket, d, logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, d
}

func TestStatusRoundTrip(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !resp.Status.Running {
		t.Error("daemon should report running over IPC")
	}
	if resp.Status.DatabasePath == "" {
		t.Error("status should carry database path")
	}
}

func TestScanPathManagement(t *testing.T) {
	client, _ := newTestServer(t)

	added, err := client.PathAdd("/mnt/recordings", "External drive")
	if err != nil {
		t.Fatalf("PathAdd: %v", err)
	}
	if added.Path.Path != "/mnt/recordings" || !added.Path.Enabled {
		t.Errorf("unexpected added path %+v", added.Path)
	}

	list, err := client.PathsList(false)
	if err != nil {
		t.Fatalf("PathsList: %v", err)
	}
	if len(list.Paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(list.Paths))
	}

	if _, err := client.PathSetEnabled("/mnt/recordings", false); err != nil {
		t.Fatalf("PathSetEnabled: %v", err)
	}
	enabled, err := client.PathsList(true)
	if err != nil {
		t.Fatalf("PathsList enabled: %v", err)
	}
	if len(enabled.Paths) != 0 {
		t.Errorf("disabled path should not be listed as enabled, got %v", enabled.Paths)
	}

	removed, err := client.PathRemove("/mnt/recordings")
	if err != nil {
		t.Fatalf("PathRemove: %v", err)
	}
	if !removed.Removed {
		t.Error("expected removal to report true")
	}
}

func TestSchedulerConfiguration(t *testing.T) {
	client, _ := newTestServer(t)

	got, err := client.SchedulerGet()
	if err != nil {
		t.Fatalf("SchedulerGet: %v", err)
	}
	settings := got.Status.Settings
	settings.Enabled = true
	settings.CheckInterval = 2 * time.Hour

	set, err := client.SchedulerSet(SchedulerSetRequest{Settings: settings})
	if err != nil {
		t.Fatalf("SchedulerSet: %v", err)
	}
	if !set.Settings.Enabled || set.Settings.CheckInterval != 2*time.Hour {
		t.Errorf("settings not applied: %+v", set.Settings)
	}
}

func TestScanStartAndPoll(t *testing.T) {
	client, _ := newTestServer(t)

	started, err := client.ScanStart(true)
	if err != nil {
		t.Fatalf("ScanStart: %v", err)
	}
	if started.OperationID == "" {
		t.Fatal("expected operation id")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := client.OperationStatus(daemon.OpScan)
		if err != nil {
			t.Fatalf("OperationStatus: %v", err)
		}
		if status.Known && !status.Status.Running {
			if status.Status.Error != "" {
				t.Fatalf("scan failed: %s", status.Status.Error)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scan did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQuarantineStatsEmpty(t *testing.T) {
	client, _ := newTestServer(t)

	stats, err := client.QuarantineStats()
	if err != nil {
		t.Fatalf("QuarantineStats: %v", err)
	}
	if stats.Count != 0 || stats.TotalBytes != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestLogTailRoundTrip(t *testing.T) {
	client, d := newTestServer(t)

	content := "line one\nline two\nline three\n"
	if err := os.WriteFile(d.LogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	resp, err := client.LogTail(-1, 2)
	if err != nil {
		t.Fatalf("LogTail: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[0] != "line two" || resp.Lines[1] != "line three" {
		t.Fatalf("unexpected tail lines %v", resp.Lines)
	}

	f, err := os.OpenFile(d.LogPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log for append: %v", err)
	}
	if _, err := f.WriteString("line four\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	more, err := client.LogTail(resp.Offset, 0)
	if err != nil {
		t.Fatalf("LogTail resume: %v", err)
	}
	if len(more.Lines) != 1 || more.Lines[0] != "line four" {
		t.Fatalf("unexpected resumed lines %v", more.Lines)
	}
}

func TestReconcileEmptyStore(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.Reconcile(false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if resp.Checked != 0 || len(resp.Ghosts) != 0 {
		t.Errorf("expected nothing to reconcile, got %+v", resp)
	}
}
