package testsupport

import (
	"context"
	"time"

	"reclaim/internal/history"
)

// FakeHistory is an in-memory history.Store for tests.
type FakeHistory struct {
	Records []history.Record
	// PurgedBefore captures the cutoff of the last Purge call.
	PurgedBefore time.Time
}

func (f *FakeHistory) Query(_ context.Context, q history.Query) ([]history.Record, error) {
	var out []history.Record
	for _, rec := range f.Records {
		if q.Status != "" && rec.Status != q.Status {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (f *FakeHistory) Purge(_ context.Context, before time.Time) (int64, error) {
	f.PurgedBefore = before
	var kept []history.Record
	var purged int64
	for _, rec := range f.Records {
		if rec.StartedAt.Before(before) {
			purged++
			continue
		}
		kept = append(kept, rec)
	}
	f.Records = kept
	return purged, nil
}
