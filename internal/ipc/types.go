package ipc

import (
	"time"

	"reclaim/internal/daemon"
	"reclaim/internal/orphan"
	"reclaim/internal/quarantine"
	"reclaim/internal/scheduler"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the daemon status snapshot.
type StatusResponse struct {
	Status daemon.Status `json:"status"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ScanStartRequest triggers a deep filesystem scan.
type ScanStartRequest struct {
	DryRun bool `json:"dry_run"`
}

// AuditStartRequest triggers an inventory audit.
type AuditStartRequest struct {
	IncludeDeleted bool `json:"include_deleted"`
}

// SweepStartRequest triggers an expiration sweep.
type SweepStartRequest struct{}

// OperationStartedResponse carries the id of a launched operation.
type OperationStartedResponse struct {
	OperationID string `json:"operation_id"`
}

// OperationStatusRequest polls one operation kind.
type OperationStatusRequest struct {
	Kind daemon.OpKind `json:"kind"`
}

// OperationStatusResponse reports the operation slot state. Known is false
// when no operation of that kind has ever run.
type OperationStatusResponse struct {
	Known  bool                   `json:"known"`
	Status daemon.OperationStatus `json:"status"`
}

// OperationCancelRequest cancels one operation kind.
type OperationCancelRequest struct {
	Kind daemon.OpKind `json:"kind"`
}

// OperationCancelResponse reports whether a running operation was cancelled.
type OperationCancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// CleanupRunRequest triggers a synchronous history-based cleanup pass.
type CleanupRunRequest struct {
	DryRun bool `json:"dry_run"`
}

// CleanupRunResponse carries the cleanup result.
type CleanupRunResponse struct {
	Result orphan.CleanupResult `json:"result"`
}

// QuarantineItem is the wire form of a quarantine record.
type QuarantineItem struct {
	ID                  int64     `json:"id"`
	OriginalPath        string    `json:"original_path"`
	QuarantinePath      string    `json:"quarantine_path"`
	FileKind            string    `json:"file_kind"`
	AssociatedRecording string    `json:"associated_recording,omitempty"`
	SizeBytes           int64     `json:"size_bytes"`
	Reason              string    `json:"reason,omitempty"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	ExpiresAt           time.Time `json:"expires_at,omitzero"`
}

func fromItem(item *quarantine.Item) QuarantineItem {
	return QuarantineItem{
		ID:                  item.ID,
		OriginalPath:        item.OriginalPath,
		QuarantinePath:      item.QuarantinePath,
		FileKind:            string(item.FileKind),
		AssociatedRecording: item.AssociatedRecording,
		SizeBytes:           item.SizeBytes,
		Reason:              item.Reason,
		Status:              string(item.Status),
		CreatedAt:           item.CreatedAt,
		ExpiresAt:           item.ExpiresAt,
	}
}

// QuarantineListRequest lists quarantine items.
type QuarantineListRequest struct {
	IncludeExpired bool `json:"include_expired"`
}

// QuarantineListResponse contains quarantine entries.
type QuarantineListResponse struct {
	Items []QuarantineItem `json:"items"`
}

// QuarantineRestoreRequest restores one item to its original path.
type QuarantineRestoreRequest struct {
	ID int64 `json:"id"`
}

// QuarantineRestoreResponse reports restore result.
type QuarantineRestoreResponse struct {
	Restored bool `json:"restored"`
}

// QuarantineDeleteRequest permanently deletes one item.
type QuarantineDeleteRequest struct {
	ID int64 `json:"id"`
}

// QuarantineDeleteResponse reports delete result.
type QuarantineDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// QuarantineStatsRequest fetches aggregate quarantine stats.
type QuarantineStatsRequest struct{}

// QuarantineStatsResponse carries aggregate counts.
type QuarantineStatsResponse struct {
	Count      int   `json:"count"`
	TotalBytes int64 `json:"total_bytes"`
}

// ReconcileRequest checks quarantine records against the filesystem. Apply
// marks ghost records as deleted instead of only reporting them.
type ReconcileRequest struct {
	Apply bool `json:"apply"`
}

// ReconcileResponse summarizes the reconcile pass.
type ReconcileResponse struct {
	Checked int              `json:"checked"`
	Ghosts  []QuarantineItem `json:"ghosts"`
	Marked  int              `json:"marked"`
}

// SchedulerGetRequest fetches scheduler status.
type SchedulerGetRequest struct{}

// SchedulerGetResponse carries current scheduler state.
type SchedulerGetResponse struct {
	Status scheduler.Status `json:"status"`
}

// SchedulerSetRequest replaces scheduler settings.
type SchedulerSetRequest struct {
	Settings scheduler.Settings `json:"settings"`
}

// SchedulerSetResponse acknowledges the update.
type SchedulerSetResponse struct {
	Settings scheduler.Settings `json:"settings"`
}

// ScanPath is the wire form of a configured scan root.
type ScanPath struct {
	ID      int64  `json:"id"`
	Path    string `json:"path"`
	Label   string `json:"label,omitempty"`
	Enabled bool   `json:"enabled"`
}

// PathsListRequest lists configured scan roots.
type PathsListRequest struct {
	EnabledOnly bool `json:"enabled_only"`
}

// PathsListResponse contains scan roots.
type PathsListResponse struct {
	Paths []ScanPath `json:"paths"`
}

// PathAddRequest registers a scan root.
type PathAddRequest struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// PathAddResponse carries the stored scan root.
type PathAddResponse struct {
	Path ScanPath `json:"path"`
}

// PathSetEnabledRequest toggles a scan root.
type PathSetEnabledRequest struct {
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
}

// PathSetEnabledResponse reports whether the root existed.
type PathSetEnabledResponse struct {
	Updated bool `json:"updated"`
}

// PathRemoveRequest deletes a scan root.
type PathRemoveRequest struct {
	Path string `json:"path"`
}

// PathRemoveResponse reports whether the root existed.
type PathRemoveResponse struct {
	Removed bool `json:"removed"`
}

// LogTailRequest reads from the daemon log. With Offset < 0 the last Limit
// lines are returned; otherwise complete lines after Offset.
type LogTailRequest struct {
	Offset int64 `json:"offset"`
	Limit  int   `json:"limit"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
