package quarantine

import (
	"context"
	"fmt"
	"time"

	"reclaim/internal/fileutil"
	"reclaim/internal/logging"
)

// Reconcile checks every quarantined record against the filesystem and
// reports ghosts: records whose physical file is missing, typically because
// a move failed mid-quarantine or the operator cleaned the quarantine
// directory by hand. Ghosts keep their quarantined status unless apply is
// set, in which case they are marked deleted. No other repair is attempted.
func (s *Store) Reconcile(ctx context.Context, apply bool) (ReconcileReport, error) {
	items, err := s.queryItems(ctx,
		"SELECT "+itemColumns+" FROM quarantine_items WHERE status = ? ORDER BY created_at ASC",
		string(StatusQuarantined))
	if err != nil {
		return ReconcileReport{}, err
	}

	report := ReconcileReport{Checked: len(items)}
	for _, item := range items {
		if fileutil.PathExists(item.QuarantinePath) {
			continue
		}
		report.Ghosts = append(report.Ghosts, *item)
		if !apply {
			continue
		}
		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := s.db.ExecContext(ctx,
			"UPDATE quarantine_items SET status = ?, deleted_at = ? WHERE id = ?",
			string(StatusDeleted), now, item.ID); err != nil {
			return report, fmt.Errorf("mark ghost %d deleted: %w", item.ID, err)
		}
		report.Marked++
		s.logger.Info("ghost record marked deleted",
			logging.Int64("item_id", item.ID),
			logging.String(logging.FieldPath, item.QuarantinePath))
	}
	return report, nil
}
