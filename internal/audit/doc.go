// Package audit reconciles the DVR's file inventory against the recordings
// tree on disk. It reports discrepancies (missing files, untracked files,
// empty folders) for operator review and never modifies anything itself.
package audit
