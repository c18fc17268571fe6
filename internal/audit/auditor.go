package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reclaim/internal/inventory"
	"reclaim/internal/logging"
)

// Params configures a single audit run.
type Params struct {
	Inventory      inventory.Service
	RecordingsRoot string
	IncludeDeleted bool
	Progress       func(Progress)
	Logger         *slog.Logger
}

// folderIndex holds tracked filenames grouped by absolute parent folder.
type folderIndex map[string]map[string]struct{}

func (idx folderIndex) add(path string) {
	dir := filepath.Dir(path)
	names, ok := idx[dir]
	if !ok {
		names = make(map[string]struct{})
		idx[dir] = names
	}
	names[filepath.Base(path)] = struct{}{}
}

// Run reconciles the DVR inventory against the recordings tree. A failed
// inventory fetch fails the whole audit. Cancellation through ctx returns a
// partial report with Cancelled set instead of an error.
func Run(ctx context.Context, params Params) (*Report, error) {
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service not configured")
	}
	root := strings.TrimSpace(params.RecordingsRoot)
	if root == "" {
		return nil, fmt.Errorf("recordings root not configured")
	}
	logger := params.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "audit")

	report := &Report{}
	notify := func(p Progress) {
		if params.Progress != nil {
			params.Progress(p)
		}
	}

	notify(Progress{Phase: PhaseIndexing})

	active, err := params.Inventory.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	var deleted []inventory.File
	if params.IncludeDeleted {
		deleted, err = params.Inventory.ListDeletedFiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch deleted inventory: %w", err)
		}
	}

	activeByPath := make(map[string]inventory.File, len(active))
	folders := make(folderIndex)
	for _, file := range active {
		path := resolvePath(root, file)
		activeByPath[path] = file
		folders.add(path)
	}

	deletedFolders := make(folderIndex)
	for _, file := range deleted {
		deletedFolders.add(resolvePath(root, file))
	}

	logger.Info("audit started",
		logging.Int("records", len(active)),
		logging.Int("deleted_records", len(deleted)),
		logging.String(logging.FieldPath, root))

	// Phase: verify every tracked record exists on disk.
	paths := make([]string, 0, len(activeByPath))
	for path := range activeByPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for i, path := range paths {
		if ctx.Err() != nil {
			return cancelled(report, logger), nil
		}
		file := activeByPath[path]
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				report.MissingFiles = append(report.MissingFiles, MissingFile{
					ID:    file.ID,
					Path:  path,
					Title: file.Title,
				})
			} else {
				logger.Warn("stat failed during audit",
					logging.String(logging.FieldPath, path),
					logging.Error(err))
			}
		}
		report.CheckedRecords++
		notify(Progress{Phase: PhaseChecking, Current: i + 1, Total: len(paths), Detail: path})
	}

	// Phase: scan each tracked folder for files the inventory does not know.
	folderPaths := make([]string, 0, len(folders))
	for dir := range folders {
		folderPaths = append(folderPaths, dir)
	}
	sort.Strings(folderPaths)
	for i, dir := range folderPaths {
		if ctx.Err() != nil {
			return cancelled(report, logger), nil
		}
		scanFolder(report, dir, folders[dir], deletedFolders[dir], logger)
		report.CheckedFolders++
		notify(Progress{Phase: PhaseScanning, Current: i + 1, Total: len(folderPaths), Detail: dir})
	}

	// Phase: cover directory trees the inventory never referenced at all.
	untracked, err := untrackedRoots(root, folders)
	if err != nil {
		logger.Warn("listing recordings root failed", logging.Error(err))
	}
	for i, dir := range untracked {
		if ctx.Err() != nil {
			return cancelled(report, logger), nil
		}
		if err := scanUntrackedTree(ctx, report, dir, deletedFolders, logger); err != nil {
			return cancelled(report, logger), nil
		}
		notify(Progress{Phase: PhaseUntracked, Current: i + 1, Total: len(untracked), Detail: dir})
	}

	logger.Info("audit finished",
		logging.Int("missing", len(report.MissingFiles)),
		logging.Int("orphans", len(report.OrphanedFiles)),
		logging.Int("empty_folders", len(report.EmptyFolders)),
		logging.Int64("orphan_bytes", report.OrphanBytes))
	return report, nil
}

// scanFolder lists dir and records files the active inventory does not track.
// Companions of tracked filenames are suppressed; extras covered by the
// deleted inventory are tagged as trash.
func scanFolder(report *Report, dir string, tracked, deletedNames map[string]struct{}, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("reading folder failed",
				logging.String(logging.FieldPath, dir),
				logging.Error(err))
		}
		return
	}

	// Companion suppression only counts tracked files that still exist on
	// disk: a subtitle whose recording is missing is an orphan, not a
	// companion.
	present := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := tracked[entry.Name()]; ok {
			present[entry.Name()] = struct{}{}
		}
	}

	extras := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := present[name]; ok {
			continue
		}
		if parent := companionBase(name, present); parent != "" {
			logger.Debug("companion suppressed",
				logging.String(logging.FieldPath, filepath.Join(dir, name)),
				logging.String("recording", parent))
			continue
		}
		extras++
		size := int64(0)
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		report.addOrphan(filepath.Join(dir, name), size, inTrash(name, deletedNames))
	}
	if len(present) == 0 && extras == 0 {
		report.EmptyFolders = append(report.EmptyFolders, dir)
	}
}

// scanUntrackedTree walks a directory tree with no tracked files; every
// regular file in it is an orphan candidate.
func scanUntrackedTree(ctx context.Context, report *Report, root string, deletedFolders folderIndex, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Warn("walking untracked tree failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		size := int64(0)
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		report.addOrphan(path, size, inTrash(entry.Name(), deletedFolders[filepath.Dir(path)]))
		return nil
	})
}

// untrackedRoots returns immediate subdirectories of root that no tracked
// folder lives in or under.
func untrackedRoots(root string, folders folderIndex) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if folderReferences(folders, dir) {
			continue
		}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func folderReferences(folders folderIndex, dir string) bool {
	prefix := dir + string(filepath.Separator)
	for tracked := range folders {
		if tracked == dir || strings.HasPrefix(tracked, prefix) {
			return true
		}
	}
	return false
}

// inTrash reports whether name, or the recording it companions, appears in
// the deleted inventory for its folder.
func inTrash(name string, deletedNames map[string]struct{}) bool {
	if len(deletedNames) == 0 {
		return false
	}
	if _, ok := deletedNames[name]; ok {
		return true
	}
	return isCompanion(name, deletedNames)
}

// resolvePath maps an inventory record to an absolute path under root. The
// DVR reports paths relative to its import prefix; records carrying that
// prefix have it stripped before joining.
func resolvePath(root string, file inventory.File) string {
	rel := strings.TrimSpace(file.RelativePath)
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	if prefix := strings.TrimSpace(file.ImportPrefix); prefix != "" {
		trimmed := strings.TrimPrefix(rel, strings.TrimSuffix(prefix, "/")+"/")
		rel = trimmed
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

func cancelled(report *Report, logger *slog.Logger) *Report {
	report.Cancelled = true
	logger.Info("audit cancelled",
		logging.Int("checked_records", report.CheckedRecords),
		logging.Int("checked_folders", report.CheckedFolders))
	return report
}
