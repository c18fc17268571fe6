package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore reads the pipeline's executions table from its SQLite database.
type SQLStore struct {
	db *sql.DB
}

// OpenSQL connects to the pipeline's execution-history database. The file
// must already exist; reclaim never creates or migrates it.
func OpenSQL(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// OpenSQLWritable connects with purge support enabled.
func OpenSQLWritable(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Query returns execution records matching the filter, most recent first.
func (s *SQLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	query := "SELECT id, path, status, success, started_at, ended_at FROM executions"
	args := []any{}
	if strings.TrimSpace(q.Status) != "" {
		query += " WHERE status = ?"
		args = append(args, q.Status)
	}
	query += " ORDER BY started_at DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			success  sql.NullInt64
			started  sql.NullString
			ended    sql.NullString
			pathNull sql.NullString
		)
		if err := rows.Scan(&rec.ID, &pathNull, &rec.Status, &success, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		rec.Path = pathNull.String
		rec.Success = success.Valid && success.Int64 != 0
		rec.StartedAt = parseTimestamp(started)
		rec.EndedAt = parseTimestamp(ended)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Purge deletes executions that started before the cutoff.
func (s *SQLStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM executions WHERE started_at < ?",
		before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("purge executions: %w", err)
	}
	return res.RowsAffected()
}

func parseTimestamp(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, value.String); err == nil {
			return ts
		}
	}
	return time.Time{}
}
