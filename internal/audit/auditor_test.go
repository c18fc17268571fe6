package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reclaim/internal/inventory"
	"reclaim/internal/testsupport"
)

type fakeInventory struct {
	files   []inventory.File
	deleted []inventory.File
	err     error
}

func (f *fakeInventory) ListFiles(ctx context.Context) ([]inventory.File, error) {
	return f.files, f.err
}

func (f *fakeInventory) ListDeletedFiles(ctx context.Context) ([]inventory.File, error) {
	return f.deleted, f.err
}

func TestAuditCleanTree(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "TV", "Show", "ep1.mpg"), 128)

	inv := &fakeInventory{files: []inventory.File{
		{ID: 1, RelativePath: "TV/Show/ep1.mpg", Title: "Show"},
	}}

	report, err := Run(context.Background(), Params{Inventory: inv, RecordingsRoot: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.MissingFiles) != 0 {
		t.Errorf("expected no missing files, got %d", len(report.MissingFiles))
	}
	if len(report.OrphanedFiles) != 0 {
		t.Errorf("expected no orphans, got %v", report.OrphanedFiles)
	}
	if report.CheckedRecords != 1 {
		t.Errorf("expected 1 checked record, got %d", report.CheckedRecords)
	}
}

func TestAuditCompanionSuppressionFlips(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "TV", "Show")
	recording := filepath.Join(dir, "ep1.mpg")
	subtitle := filepath.Join(dir, "ep1.srt")
	testsupport.WriteFile(t, recording, 128)
	testsupport.WriteFile(t, subtitle, 16)

	inv := &fakeInventory{files: []inventory.File{
		{ID: 1, RelativePath: "TV/Show/ep1.mpg", Title: "Show"},
	}}

	report, err := Run(context.Background(), Params{Inventory: inv, RecordingsRoot: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.OrphanedFiles) != 0 {
		t.Fatalf("subtitle next to tracked recording should be suppressed, got %v", report.OrphanedFiles)
	}
	if len(report.MissingFiles) != 0 {
		t.Fatalf("expected no missing files, got %v", report.MissingFiles)
	}

	// Removing the recording makes it missing and exposes the subtitle.
	if err := os.Remove(recording); err != nil {
		t.Fatal(err)
	}
	report, err = Run(context.Background(), Params{Inventory: inv, RecordingsRoot: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.MissingFiles) != 1 || report.MissingFiles[0].Path != recording {
		t.Errorf("expected %s missing, got %v", recording, report.MissingFiles)
	}
	if len(report.OrphanedFiles) != 1 || report.OrphanedFiles[0].Path != subtitle {
		t.Errorf("expected %s orphaned once its recording is gone, got %v", subtitle, report.OrphanedFiles)
	}
}

func TestAuditTrashTagging(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Movies")
	tracked := filepath.Join(dir, "keep.mpg")
	doomed := filepath.Join(dir, "gone.mpg")
	testsupport.WriteFile(t, tracked, 64)
	testsupport.WriteFile(t, doomed, 64)

	inv := &fakeInventory{
		files:   []inventory.File{{ID: 1, RelativePath: "Movies/keep.mpg"}},
		deleted: []inventory.File{{ID: 2, RelativePath: "Movies/gone.mpg"}},
	}

	report, err := Run(context.Background(), Params{Inventory: inv, RecordingsRoot: root, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.OrphanedFiles) != 1 {
		t.Fatalf("expected 1 orphan, got %v", report.OrphanedFiles)
	}
	orphan := report.OrphanedFiles[0]
	if orphan.Path != doomed || !orphan.Trash {
		t.Errorf("expected %s tagged trash, got %+v", doomed, orphan)
	}
	if report.TrashCount != 1 {
		t.Errorf("expected trash count 1, got %d", report.TrashCount)
	}
}

func TestAuditEmptyFolders(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "TV", "Show")
	testsupport.WriteFile(t, filepath.Join(dir, "ep1.mpg"), 64)

	inv := &fakeInventory{files: []inventory.File{
		{ID: 1, RelativePath: "TV/Show/ep1.mpg"},
	}}

	if err := os.Remove(filepath.Join(dir, "ep1.mpg")); err != nil {
		t.Fatal(err)
	}

	report, err := Run(context.Background(), Params{Inventory: inv, RecordingsRoot: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.EmptyFolders) != 1 || report.EmptyFolders[0] != dir {
		t.Errorf("expected %s empty, got %v", dir, report.EmptyFolders)
	}
}

func TestAuditUntrackedTree(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "TV", "Show", "ep1.mpg"), 64)
	stray := filepath.Join(root, "Unsorted", "mystery.mpg")
	testsupport.WriteFile(t, stray, 32)

	inv := &fakeInventory{files: []inventory.File{
		{ID: 1, RelativePath: "TV/Show/ep1.mpg"},
	}}

	report, err := Run(context.Background(), Params{Inventory: inv, RecordingsRoot: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.OrphanedFiles) != 1 || report.OrphanedFiles[0].Path != stray {
		t.Errorf("expected stray file %s orphaned, got %v", stray, report.OrphanedFiles)
	}
}

func TestAuditCancelledMidway(t *testing.T) {
	root := t.TempDir()
	inv := &fakeInventory{files: []inventory.File{
		{ID: 1, RelativePath: "TV/Show/ep1.mpg"},
		{ID: 2, RelativePath: "TV/Show/ep2.mpg"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	var progressed bool
	report, err := Run(ctx, Params{
		Inventory:      inv,
		RecordingsRoot: root,
		Progress: func(p Progress) {
			if p.Phase == PhaseChecking && !progressed {
				progressed = true
				cancel()
			}
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Cancelled {
		t.Fatal("expected cancelled report")
	}
	if report.CheckedRecords >= 2 {
		t.Errorf("expected partial progress, checked %d records", report.CheckedRecords)
	}
}

func TestAuditFailsWhenInventoryFetchFails(t *testing.T) {
	inv := &fakeInventory{err: os.ErrDeadlineExceeded}
	if _, err := Run(context.Background(), Params{Inventory: inv, RecordingsRoot: t.TempDir()}); err == nil {
		t.Fatal("expected audit to fail when inventory fetch fails")
	}
}

func TestIsCompanionMatching(t *testing.T) {
	tracked := map[string]struct{}{"ep1.mpg": {}}
	cases := []struct {
		name string
		want bool
	}{
		{"ep1.srt", true},
		{"ep1.mpg.orig", true},
		{"ep1.commercials.edl", true},
		{"ep2.srt", false},
		{"unrelated.mpg", false},
	}
	for _, tc := range cases {
		if got := isCompanion(tc.name, tracked); got != tc.want {
			t.Errorf("isCompanion(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCompanionBaseNamesParent(t *testing.T) {
	tracked := map[string]struct{}{"ep1.mpg": {}, "notes.txt": {}}
	cases := []struct {
		name string
		want string
	}{
		{"ep1.srt", "ep1.mpg"},
		{"ep1.mpg.orig", "ep1.mpg"},
		{"ep1.commercials.edl", "ep1.mpg"},
		{"ep2.srt", ""},
		{"ep1.mpg", ""},
	}
	for _, tc := range cases {
		if got := companionBase(tc.name, tracked); got != tc.want {
			t.Errorf("companionBase(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
