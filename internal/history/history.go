package history

import (
	"context"
	"time"
)

// Execution statuses recorded by the captioning pipeline.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is one pipeline execution: a captioning job run against one
// recording file.
type Record struct {
	ID        int64
	Path      string
	Status    string
	Success   bool
	StartedAt time.Time
	// EndedAt is zero while the execution is still running.
	EndedAt time.Time
}

// Query filters execution records.
type Query struct {
	// Status limits results to one status; empty matches all.
	Status string
	// Limit caps the number of returned records; 0 means no cap.
	Limit int
}

// Store is the read surface of the pipeline's execution-history database.
type Store interface {
	// Query returns records matching the filter, most recent first.
	Query(ctx context.Context, q Query) ([]Record, error)
	// Purge deletes records that started before the cutoff and returns the
	// number removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}
