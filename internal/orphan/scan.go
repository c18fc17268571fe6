package orphan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reclaim/internal/fileutil"
	"reclaim/internal/logging"
	"reclaim/internal/quarantine"
)

// Scan phases reported through the progress callback.
const (
	PhaseEnumerating = "enumerating"
	PhaseScanning    = "scanning"
)

// Progress describes where a deep scan currently is. OrphansFound is
// cumulative across the whole scan.
type Progress struct {
	Phase        string `json:"phase"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	Folder       string `json:"folder,omitempty"`
	OrphansFound int    `json:"orphans_found"`
}

// ScanResult is the outcome of a filesystem scan. A cancelled result carries
// no orphan file lists: partial findings are discarded so callers never act
// on an incomplete picture. OrphansFound survives cancellation so the count
// of what a truncated scan saw is still reported.
type ScanResult struct {
	OrigFiles      []Found `json:"orig_files"`
	SrtFiles       []Found `json:"srt_files"`
	OrphansFound   int     `json:"orphans_found"`
	FoldersScanned int     `json:"folders_scanned"`
	FoldersTotal   int     `json:"folders_total"`
	Cancelled      bool    `json:"cancelled"`
}

// Orphans returns both kinds merged.
func (r *ScanResult) Orphans() []Found {
	merged := make([]Found, 0, len(r.OrigFiles)+len(r.SrtFiles))
	merged = append(merged, r.OrigFiles...)
	merged = append(merged, r.SrtFiles...)
	return merged
}

// ScanFilesystem walks the given roots exhaustively. It enumerates every
// directory first, then scans them one at a time, reporting progress after
// each. Cancellation is checked before each directory.
func (d *Detector) ScanFilesystem(ctx context.Context, roots []string, progress func(Progress)) (*ScanResult, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("no scan roots configured")
	}
	notify := func(p Progress) {
		if progress != nil {
			progress(p)
		}
	}

	var dirs []string
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				d.logger.Warn("enumerating folder failed",
					logging.String(logging.FieldPath, path),
					logging.Error(err))
				return nil
			}
			if entry.IsDir() {
				dirs = append(dirs, path)
				notify(Progress{Phase: PhaseEnumerating, Current: len(dirs), Folder: path})
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return &ScanResult{Cancelled: true}, nil
			}
			return nil, fmt.Errorf("enumerate %s: %w", root, err)
		}
	}
	sort.Strings(dirs)

	result := &ScanResult{FoldersTotal: len(dirs)}
	for i, dir := range dirs {
		if ctx.Err() != nil {
			d.logger.Info("scan cancelled",
				logging.Int("folders_scanned", result.FoldersScanned),
				logging.Int("orphans_found", result.OrphansFound),
				logging.Int("folders_total", len(dirs)))
			return &ScanResult{
				OrphansFound:   result.OrphansFound,
				FoldersScanned: result.FoldersScanned,
				FoldersTotal:   len(dirs),
				Cancelled:      true,
			}, nil
		}
		d.scanDir(dir, result)
		result.FoldersScanned++
		result.OrphansFound = len(result.OrigFiles) + len(result.SrtFiles)
		notify(Progress{
			Phase:        PhaseScanning,
			Current:      i + 1,
			Total:        len(dirs),
			Folder:       dir,
			OrphansFound: result.OrphansFound,
		})
	}

	d.logger.Info("scan finished",
		logging.Int("folders", result.FoldersScanned),
		logging.Int("orig_orphans", len(result.OrigFiles)),
		logging.Int("srt_orphans", len(result.SrtFiles)))
	return result, nil
}

// scanDir inspects the files of one directory. A .orig file is orphaned when
// its unstripped path is gone; a .srt file is orphaned when no sibling with a
// recognized media extension exists.
func (d *Detector) scanDir(dir string, result *ScanResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		d.logger.Warn("reading folder failed",
			logging.String(logging.FieldPath, dir),
			logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		switch {
		case strings.HasSuffix(name, ".orig"):
			recording := strings.TrimSuffix(path, ".orig")
			if !fileutil.PathExists(recording) {
				result.OrigFiles = append(result.OrigFiles, Found{
					Path:      path,
					Kind:      quarantine.KindOrig,
					Recording: recording,
				})
			}
		case strings.EqualFold(filepath.Ext(name), ".srt"):
			stem := strings.TrimSuffix(path, filepath.Ext(path))
			if !d.hasMediaSibling(stem) {
				result.SrtFiles = append(result.SrtFiles, Found{
					Path:      path,
					Kind:      quarantine.KindSrt,
					Recording: stem,
				})
			}
		}
	}
}

func (d *Detector) hasMediaSibling(stem string) bool {
	for _, ext := range d.cfg.Scan.MediaExtensions {
		if fileutil.PathExists(stem + ext) {
			return true
		}
	}
	return false
}
