package quarantine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reclaim/internal/fileutil"
	"reclaim/internal/logging"
)

const itemColumns = "id, original_path, quarantine_path, file_kind, associated_recording, size_bytes, reason, status, created_at, expires_at, restored_at, deleted_at"

// Quarantine relocates originalPath into its device's quarantine directory
// and records the move. The record is persisted before the physical move so
// a crash in between still leaves discoverable state; Reconcile later settles
// records whose move never happened. A missing source file is not an error:
// the record is created and the move skipped.
func (s *Store) Quarantine(ctx context.Context, originalPath string, kind FileKind, reason, recordingPath string, expirationDays int) (*Item, error) {
	dir := s.resolver.QuarantineDirFor(originalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure quarantine dir %s: %w", dir, err)
	}

	now := time.Now().UTC()
	destName := fmt.Sprintf("%d-%s", now.UnixNano(), filepath.Base(originalPath))
	destPath := fileutil.UniqueDestination(dir, destName)

	var size int64
	sourceExists := false
	if info, err := os.Stat(originalPath); err == nil {
		size = info.Size()
		sourceExists = true
	}

	var expires time.Time
	if expirationDays > 0 {
		expires = now.AddDate(0, 0, expirationDays)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quarantine_items (
            original_path, quarantine_path, file_kind, associated_recording,
            size_bytes, reason, status, created_at, expires_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		originalPath,
		destPath,
		string(kind),
		nullableString(recordingPath),
		size,
		nullableString(reason),
		string(StatusQuarantined),
		now.Format(time.RFC3339Nano),
		nullableTime(expires),
	)
	if err != nil {
		return nil, fmt.Errorf("insert quarantine item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if sourceExists {
		moved, moveErr := fileutil.MoveFile(originalPath, destPath)
		if moveErr != nil {
			// Record stays quarantined; Reconcile surfaces it as a ghost.
			s.logger.Error("quarantine move failed",
				logging.String(logging.FieldPath, originalPath), logging.Error(moveErr))
			item, getErr := s.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return item, fmt.Errorf("quarantine move: %w", moveErr)
		}
		if moved.CrossDevice {
			s.logger.Warn("quarantine crossed devices; register the file's scan path to avoid slow copies",
				logging.String(logging.FieldPath, originalPath),
				logging.String("quarantine_path", destPath))
		}
	} else {
		s.logger.Info("quarantine source already gone, recorded without move",
			logging.String(logging.FieldPath, originalPath))
	}

	return s.GetByID(ctx, id)
}

// Restore moves a quarantined file back to its original location. It returns
// false without mutating anything unless the item is quarantined, the
// quarantined file still exists, and the original path is free.
func (s *Store) Restore(ctx context.Context, id int64) (bool, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil || item.Status != StatusQuarantined {
		return false, nil
	}
	if !fileutil.PathExists(item.QuarantinePath) {
		return false, nil
	}
	if fileutil.PathExists(item.OriginalPath) {
		// Re-occupied original path is an expected race, not an error.
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(item.OriginalPath), 0o755); err != nil {
		return false, fmt.Errorf("ensure restore dir: %w", err)
	}
	if _, err := fileutil.MoveFile(item.QuarantinePath, item.OriginalPath); err != nil {
		return false, fmt.Errorf("restore move: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		"UPDATE quarantine_items SET status = ?, restored_at = ? WHERE id = ?",
		string(StatusRestored), now, id)
	if err != nil {
		return false, fmt.Errorf("mark restored: %w", err)
	}
	s.logger.Info("restored quarantined file",
		logging.Int64("item_id", id),
		logging.String(logging.FieldPath, item.OriginalPath))
	return true, nil
}

// Delete permanently removes a quarantined file. It returns false unless the
// item is currently quarantined. A missing physical file is tolerated: the
// record is marked deleted regardless, making Delete idempotent toward the
// filesystem.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil || item.Status != StatusQuarantined {
		return false, nil
	}

	if err := os.Remove(item.QuarantinePath); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("remove quarantined file: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		"UPDATE quarantine_items SET status = ?, deleted_at = ? WHERE id = ?",
		string(StatusDeleted), now, id)
	if err != nil {
		return false, fmt.Errorf("mark deleted: %w", err)
	}
	s.logger.Info("deleted quarantined file",
		logging.Int64("item_id", id),
		logging.String(logging.FieldPath, item.QuarantinePath))
	return true, nil
}

// GetByID fetches a single item, or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM quarantine_items WHERE id = ?", id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

// List returns quarantined items, newest first. Items past their expiration
// are excluded unless includeExpired is set. Restored and deleted items are
// never returned; use the cleanup-run log for audit trails.
func (s *Store) List(ctx context.Context, includeExpired bool) ([]*Item, error) {
	query := "SELECT " + itemColumns + " FROM quarantine_items WHERE status = ?"
	args := []any{string(StatusQuarantined)}
	if !includeExpired {
		query += " AND (expires_at IS NULL OR expires_at >= ?)"
		args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY created_at DESC"
	return s.queryItems(ctx, query, args...)
}

// ListExpired returns items whose advisory expiration has passed while still
// quarantined.
func (s *Store) ListExpired(ctx context.Context) ([]*Item, error) {
	items, err := s.queryItems(ctx,
		"SELECT "+itemColumns+" FROM quarantine_items WHERE status = ? AND expires_at IS NOT NULL ORDER BY expires_at ASC",
		string(StatusQuarantined))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expired := items[:0]
	for _, item := range items {
		if item.Expired(now) {
			expired = append(expired, item)
		}
	}
	return expired, nil
}

// DeleteExpired permanently removes all expired items and returns how many
// were deleted.
func (s *Store) DeleteExpired(ctx context.Context) (int, error) {
	expired, err := s.ListExpired(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range expired {
		ok, err := s.Delete(ctx, item.ID)
		if err != nil {
			s.logger.Warn("expired item delete failed, continuing",
				logging.Int64("item_id", item.ID), logging.Error(err))
			continue
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// Stats aggregates count and byte totals for the live quarantine population.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(size_bytes), 0) FROM quarantine_items WHERE status = ?",
		string(StatusQuarantined)).Scan(&stats.Count, &total)
	if err != nil {
		return Stats{}, fmt.Errorf("quarantine stats: %w", err)
	}
	stats.TotalBytes = total.Int64
	return stats, nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id          int64
		origPath    string
		quarPath    string
		kind        string
		recording   sql.NullString
		sizeBytes   sql.NullInt64
		reason      sql.NullString
		statusStr   string
		createdRaw  sql.NullString
		expiresRaw  sql.NullString
		restoredRaw sql.NullString
		deletedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&origPath,
		&quarPath,
		&kind,
		&recording,
		&sizeBytes,
		&reason,
		&statusStr,
		&createdRaw,
		&expiresRaw,
		&restoredRaw,
		&deletedRaw,
	); err != nil {
		return nil, err
	}

	return &Item{
		ID:                  id,
		OriginalPath:        origPath,
		QuarantinePath:      quarPath,
		FileKind:            FileKind(kind),
		AssociatedRecording: recording.String,
		SizeBytes:           sizeBytes.Int64,
		Reason:              reason.String,
		Status:              Status(statusStr),
		CreatedAt:           parseTime(createdRaw),
		ExpiresAt:           parseTime(expiresRaw),
		RestoredAt:          parseTime(restoredRaw),
		DeletedAt:           parseTime(deletedRaw),
	}, nil
}
