package quarantine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reclaim/internal/quarantine"
	"reclaim/internal/testsupport"
)

func TestReconcileReportsGhostsWithoutMutating(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	healthy := filepath.Join(cfg.Paths.RecordingsDir, "healthy.srt")
	ghost := filepath.Join(cfg.Paths.RecordingsDir, "ghost.srt")
	testsupport.WriteFile(t, healthy, 8)
	testsupport.WriteFile(t, ghost, 8)

	if _, err := store.Quarantine(ctx, healthy, quarantine.KindSrt, "test", "", 30); err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	ghostItem, err := store.Quarantine(ctx, ghost, quarantine.KindSrt, "test", "", 30)
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	// Simulate an operator hand-cleaning the quarantine directory.
	if err := os.Remove(ghostItem.QuarantinePath); err != nil {
		t.Fatalf("remove: %v", err)
	}

	report, err := store.Reconcile(ctx, false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Checked != 2 || len(report.Ghosts) != 1 || report.Marked != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Ghosts[0].ID != ghostItem.ID {
		t.Fatalf("wrong ghost: %+v", report.Ghosts[0])
	}

	// Without apply the record keeps its quarantined status.
	item, err := store.GetByID(ctx, ghostItem.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != quarantine.StatusQuarantined {
		t.Fatalf("ghost should stay quarantined until applied, got %s", item.Status)
	}
}

func TestReconcileApplyMarksGhostsDeleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ghost := filepath.Join(cfg.Paths.RecordingsDir, "ghost.mpg.orig")
	testsupport.WriteFile(t, ghost, 8)
	ghostItem, err := store.Quarantine(ctx, ghost, quarantine.KindOrig, "test", "", 30)
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	if err := os.Remove(ghostItem.QuarantinePath); err != nil {
		t.Fatalf("remove: %v", err)
	}

	report, err := store.Reconcile(ctx, true)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Marked != 1 {
		t.Fatalf("expected one ghost marked, got %+v", report)
	}

	item, err := store.GetByID(ctx, ghostItem.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != quarantine.StatusDeleted || item.DeletedAt.IsZero() {
		t.Fatalf("applied ghost should be deleted: %+v", item)
	}
}
