package quarantine

import "time"

// FileKind classifies a quarantined file.
type FileKind string

const (
	KindOrig FileKind = "orig"
	KindSrt  FileKind = "srt"
)

// Status represents the lifecycle of a quarantine item.
type Status string

const (
	StatusQuarantined Status = "quarantined"
	StatusRestored    Status = "restored"
	StatusDeleted     Status = "deleted"
)

// Item represents one file moved out of its original location.
type Item struct {
	ID                  int64
	OriginalPath        string
	QuarantinePath      string
	FileKind            FileKind
	AssociatedRecording string
	SizeBytes           int64
	Reason              string
	Status              Status
	CreatedAt           time.Time
	ExpiresAt           time.Time
	RestoredAt          time.Time
	DeletedAt           time.Time
}

// Expired reports whether the item passed its advisory expiration while still
// quarantined.
func (i *Item) Expired(now time.Time) bool {
	return i.Status == StatusQuarantined && !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// Stats aggregates the live quarantine population.
type Stats struct {
	Count      int
	TotalBytes int64
}

// CleanupRun is one entry in the append-only automatic-cleanup log.
type CleanupRun struct {
	ID        int64
	RanAt     time.Time
	OrigCount int
	SrtCount  int
}

// ScanPath is a root folder the operator opted into deep scanning.
type ScanPath struct {
	ID        int64
	Path      string
	Label     string
	Enabled   bool
	CreatedAt time.Time
}

// ReconcileReport lists ghost records found by Reconcile: items the database
// says are quarantined whose physical file is missing.
type ReconcileReport struct {
	Checked int
	Ghosts  []Item
	// Marked is the number of ghosts transitioned to deleted; zero unless
	// Reconcile ran with apply.
	Marked int
}
