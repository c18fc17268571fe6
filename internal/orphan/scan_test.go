package orphan

import (
	"context"
	"path/filepath"
	"testing"

	"reclaim/internal/testsupport"
)

func TestScanFilesystemClassifiesOrphans(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.RecordingsDir

	// Intact set: nothing orphaned.
	testsupport.WriteRecordingSet(t, filepath.Join(root, "TV", "Intact"), "ep1.mpg")
	// Orphaned backup: recording gone.
	strandedOrig := filepath.Join(root, "TV", "Gone", "ep2.mpg.orig")
	testsupport.WriteFile(t, strandedOrig, 64)
	// Orphaned subtitle: no media sibling under any extension.
	strandedSrt := filepath.Join(root, "TV", "Gone", "ep3.srt")
	testsupport.WriteFile(t, strandedSrt, 16)

	detector := NewDetector(cfg, nil, nil, nil)
	result, err := detector.ScanFilesystem(context.Background(), []string{root}, nil)
	if err != nil {
		t.Fatalf("ScanFilesystem: %v", err)
	}
	if result.Cancelled {
		t.Fatal("unexpected cancellation")
	}
	if len(result.OrigFiles) != 1 || result.OrigFiles[0].Path != strandedOrig {
		t.Errorf("expected orig orphan %s, got %v", strandedOrig, result.OrigFiles)
	}
	if len(result.SrtFiles) != 1 || result.SrtFiles[0].Path != strandedSrt {
		t.Errorf("expected srt orphan %s, got %v", strandedSrt, result.SrtFiles)
	}
}

func TestScanFilesystemReportsProgressPerFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.RecordingsDir
	testsupport.WriteFile(t, filepath.Join(root, "A", "a.mpg"), 8)
	testsupport.WriteFile(t, filepath.Join(root, "B", "b.mpg"), 8)

	var enumerated, scanned int
	detector := NewDetector(cfg, nil, nil, nil)
	result, err := detector.ScanFilesystem(context.Background(), []string{root}, func(p Progress) {
		switch p.Phase {
		case PhaseEnumerating:
			enumerated++
		case PhaseScanning:
			scanned++
			if p.Total != 3 {
				t.Errorf("scanning progress total = %d, want 3", p.Total)
			}
		}
	})
	if err != nil {
		t.Fatalf("ScanFilesystem: %v", err)
	}
	// root, A, B
	if enumerated != 3 {
		t.Errorf("expected 3 enumeration updates, got %d", enumerated)
	}
	if scanned != 3 {
		t.Errorf("expected 3 scanning updates, got %d", scanned)
	}
	if result.FoldersScanned != 3 {
		t.Errorf("expected 3 folders scanned, got %d", result.FoldersScanned)
	}
}

func TestScanFilesystemCancelDiscardsFindings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := cfg.Paths.RecordingsDir
	for _, dir := range []string{"A", "B", "C", "D"} {
		testsupport.WriteFile(t, filepath.Join(root, dir, "stranded.mpg.orig"), 8)
	}

	ctx, cancel := context.WithCancel(context.Background())
	detector := NewDetector(cfg, nil, nil, nil)
	result, err := detector.ScanFilesystem(ctx, []string{root}, func(p Progress) {
		if p.Phase == PhaseScanning && p.Current == 2 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("ScanFilesystem: %v", err)
	}
	if !result.Cancelled {
		t.Fatal("expected cancelled result")
	}
	if len(result.OrigFiles) != 0 || len(result.SrtFiles) != 0 {
		t.Errorf("cancelled scan must discard findings, got %v / %v", result.OrigFiles, result.SrtFiles)
	}
	if result.FoldersScanned != 2 {
		t.Errorf("expected 2 folders scanned before cancel, got %d", result.FoldersScanned)
	}
	// The file lists are dropped but the running count survives: the root
	// folder held nothing, folder A held one stranded .orig.
	if result.OrphansFound != 1 {
		t.Errorf("expected cancelled result to keep 1 orphan counted, got %d", result.OrphansFound)
	}
}
