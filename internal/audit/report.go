package audit

// Phase names reported through the progress callback.
const (
	PhaseIndexing  = "indexing"
	PhaseChecking  = "checking"
	PhaseScanning  = "scanning"
	PhaseUntracked = "untracked"
)

// Progress describes where the audit currently is. Current/Total count units
// within the phase (records for checking, folders for scanning).
type Progress struct {
	Phase   string `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Detail  string `json:"detail,omitempty"`
}

// MissingFile is an inventory record whose file is absent on disk.
type MissingFile struct {
	ID    int64  `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

// OrphanFile is a disk file the active inventory does not account for.
// Trash marks entries that the DVR's deleted listing already covers.
type OrphanFile struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Trash bool   `json:"trash"`
}

// Report is the audit outcome. Cancelled reports are partial: counts reflect
// only the work completed before cancellation.
type Report struct {
	CheckedRecords int           `json:"checked_records"`
	CheckedFolders int           `json:"checked_folders"`
	MissingFiles   []MissingFile `json:"missing_files"`
	OrphanedFiles  []OrphanFile  `json:"orphaned_files"`
	EmptyFolders   []string      `json:"empty_folders"`
	OrphanBytes    int64         `json:"orphan_bytes"`
	TrashCount     int           `json:"trash_count"`
	Cancelled      bool          `json:"cancelled"`
}

func (r *Report) addOrphan(path string, size int64, trash bool) {
	r.OrphanedFiles = append(r.OrphanedFiles, OrphanFile{Path: path, Size: size, Trash: trash})
	r.OrphanBytes += size
	if trash {
		r.TrashCount++
	}
}
