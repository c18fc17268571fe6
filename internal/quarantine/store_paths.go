package quarantine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AddScanPath records a root folder for deep scanning. Paths are unique;
// re-adding an existing path updates its label and re-enables it.
func (s *Store) AddScanPath(ctx context.Context, path, label string) (*ScanPath, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("scan path must not be empty")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_paths (path, label, enabled, created_at) VALUES (?, ?, 1, ?)
         ON CONFLICT(path) DO UPDATE SET label = excluded.label, enabled = 1`,
		path, nullableString(label), now)
	if err != nil {
		return nil, fmt.Errorf("add scan path: %w", err)
	}
	return s.getScanPath(ctx, path)
}

// SetScanPathEnabled toggles a scan path. Returns false when the path is not
// configured.
func (s *Store) SetScanPathEnabled(ctx context.Context, path string, enabled bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE scan_paths SET enabled = ? WHERE path = ?", boolInt(enabled), path)
	if err != nil {
		return false, fmt.Errorf("set scan path enabled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RemoveScanPath deletes a configured scan path. Returns false when the path
// was not configured.
func (s *Store) RemoveScanPath(ctx context.Context, path string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM scan_paths WHERE path = ?", path)
	if err != nil {
		return false, fmt.Errorf("remove scan path: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListScanPaths returns configured scan paths ordered by path. With
// enabledOnly set, disabled paths are omitted.
func (s *Store) ListScanPaths(ctx context.Context, enabledOnly bool) ([]ScanPath, error) {
	query := "SELECT id, path, label, enabled, created_at FROM scan_paths"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY path ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list scan paths: %w", err)
	}
	defer rows.Close()

	var paths []ScanPath
	for rows.Next() {
		sp, err := scanScanPath(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scan path: %w", err)
		}
		paths = append(paths, *sp)
	}
	return paths, rows.Err()
}

func (s *Store) getScanPath(ctx context.Context, path string) (*ScanPath, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, path, label, enabled, created_at FROM scan_paths WHERE path = ?", path)
	sp, err := scanScanPath(row)
	if err != nil {
		return nil, fmt.Errorf("get scan path: %w", err)
	}
	return sp, nil
}

func scanScanPath(scanner interface{ Scan(dest ...any) error }) (*ScanPath, error) {
	var (
		sp         ScanPath
		label      sql.NullString
		enabled    int
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&sp.ID, &sp.Path, &label, &enabled, &createdRaw); err != nil {
		return nil, err
	}
	sp.Label = label.String
	sp.Enabled = enabled != 0
	sp.CreatedAt = parseTime(createdRaw)
	return &sp, nil
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
