package quarantine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordCleanupRun appends one entry to the automatic-cleanup log.
func (s *Store) RecordCleanupRun(ctx context.Context, origCount, srtCount int) (*CleanupRun, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO cleanup_runs (ran_at, orig_count, srt_count) VALUES (?, ?, ?)",
		now.Format(time.RFC3339Nano), origCount, srtCount)
	if err != nil {
		return nil, fmt.Errorf("record cleanup run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &CleanupRun{ID: id, RanAt: now, OrigCount: origCount, SrtCount: srtCount}, nil
}

// OldestCleanupRun returns the earliest recorded run, or nil when cleanup has
// never executed. Its timestamp bounds history purging: rows newer than it
// are the evidence base for future detection and must survive.
func (s *Store) OldestCleanupRun(ctx context.Context) (*CleanupRun, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, ran_at, orig_count, srt_count FROM cleanup_runs ORDER BY ran_at ASC LIMIT 1")
	run, err := scanCleanupRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("oldest cleanup run: %w", err)
	}
	return run, nil
}

// LatestCleanupRun returns the most recent run, or nil when cleanup has never
// executed.
func (s *Store) LatestCleanupRun(ctx context.Context) (*CleanupRun, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, ran_at, orig_count, srt_count FROM cleanup_runs ORDER BY ran_at DESC LIMIT 1")
	run, err := scanCleanupRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest cleanup run: %w", err)
	}
	return run, nil
}

// ListCleanupRuns returns the most recent runs, newest first.
func (s *Store) ListCleanupRuns(ctx context.Context, limit int) ([]CleanupRun, error) {
	query := "SELECT id, ran_at, orig_count, srt_count FROM cleanup_runs ORDER BY ran_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cleanup runs: %w", err)
	}
	defer rows.Close()

	var runs []CleanupRun
	for rows.Next() {
		run, err := scanCleanupRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cleanup run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanCleanupRun(scanner interface{ Scan(dest ...any) error }) (*CleanupRun, error) {
	var (
		run    CleanupRun
		ranRaw sql.NullString
	)
	if err := scanner.Scan(&run.ID, &ranRaw, &run.OrigCount, &run.SrtCount); err != nil {
		return nil, err
	}
	run.RanAt = parseTime(ranRaw)
	return &run, nil
}
