package orphan

import (
	"context"
	"fmt"
	"os"
	"time"

	"reclaim/internal/logging"
	"reclaim/internal/quarantine"
)

// Default window of history kept when no prior cleanup run exists to anchor
// the purge cutoff.
const defaultHistoryWindow = 30 * 24 * time.Hour

// CleanupResult summarizes one cleanup pass. Dry-run results report exactly
// what a real run would have done, byte for byte.
type CleanupResult struct {
	DryRun         bool     `json:"dry_run"`
	OrigCount      int      `json:"orig_count"`
	SrtCount       int      `json:"srt_count"`
	BytesRecovered int64    `json:"bytes_recovered"`
	HistoryPurged  int64    `json:"history_purged"`
	Failures       []string `json:"failures,omitempty"`
}

// RunCleanup runs the history detector and quarantines what it finds. Under
// dry-run nothing is moved; intent is logged and counted instead. A cleanup
// run record is appended only after a real pass succeeds. When purgeHistory
// is set, execution records older than the oldest cleanup recorded before
// this pass (or a 30-day default when none exists) are removed, since orphan
// evidence for that window has already been captured.
func (d *Detector) RunCleanup(ctx context.Context, dryRun, purgeHistory bool) (*CleanupResult, error) {
	if d.store == nil {
		return nil, fmt.Errorf("quarantine store not configured")
	}
	found, err := d.DetectFromHistory(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{DryRun: dryRun}
	for _, orphan := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := int64(0)
		if info, statErr := os.Stat(orphan.Path); statErr == nil {
			size = info.Size()
		}
		if dryRun {
			d.logger.Info("would quarantine orphan",
				logging.String(logging.FieldPath, orphan.Path),
				logging.String("kind", string(orphan.Kind)),
				logging.Bool(logging.FieldDryRun, true))
			result.countFound(orphan, size)
			continue
		}
		_, qErr := d.store.Quarantine(ctx, orphan.Path, orphan.Kind,
			"orphaned by completed execution", orphan.Recording, d.cfg.Cleanup.ExpirationDays)
		if qErr != nil {
			d.logger.Error("quarantine failed",
				logging.String(logging.FieldPath, orphan.Path),
				logging.Error(qErr))
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", orphan.Path, qErr))
			continue
		}
		result.countFound(orphan, size)
	}

	// The purge cutoff anchors on runs recorded before this pass; the run
	// appended below must not move it, or a first-ever cleanup would wipe
	// history up to the present instead of the 30-day default.
	var purgeCutoff time.Time
	if purgeHistory && !dryRun {
		cutoff, err := d.historyCutoff(ctx)
		if err != nil {
			d.logger.Warn("history purge skipped", logging.Error(err))
		} else {
			purgeCutoff = cutoff
		}
	}

	if !dryRun && len(result.Failures) == 0 {
		if _, err := d.store.RecordCleanupRun(ctx, result.OrigCount, result.SrtCount); err != nil {
			return result, fmt.Errorf("record cleanup run: %w", err)
		}
	}

	if !purgeCutoff.IsZero() {
		purged, err := d.history.Purge(ctx, purgeCutoff)
		if err != nil {
			d.logger.Warn("history purge failed", logging.Error(err))
		} else {
			result.HistoryPurged = purged
		}
	}

	d.logger.Info("cleanup finished",
		logging.Int("orig", result.OrigCount),
		logging.Int("srt", result.SrtCount),
		logging.Int64("bytes", result.BytesRecovered),
		logging.Bool(logging.FieldDryRun, dryRun))
	return result, nil
}

func (r *CleanupResult) countFound(orphan Found, size int64) {
	switch orphan.Kind {
	case quarantine.KindOrig:
		r.OrigCount++
	case quarantine.KindSrt:
		r.SrtCount++
	}
	r.BytesRecovered += size
}

// historyCutoff resolves the purge cutoff: the oldest cleanup run already on
// record, whose orphan evidence has been harvested, or the 30-day default
// when no cleanup ever ran.
func (d *Detector) historyCutoff(ctx context.Context) (time.Time, error) {
	oldest, err := d.store.OldestCleanupRun(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if oldest != nil && !oldest.RanAt.IsZero() {
		return oldest.RanAt, nil
	}
	return time.Now().Add(-defaultHistoryWindow), nil
}
