package history_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"reclaim/internal/history"
)

func newHistoryDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT,
		status TEXT NOT NULL,
		success INTEGER,
		started_at TEXT,
		ended_at TEXT
	)`)
	if err != nil {
		t.Fatalf("create executions table: %v", err)
	}

	insert := func(path, status string, success int, started time.Time) {
		_, err := db.Exec(
			"INSERT INTO executions (path, status, success, started_at, ended_at) VALUES (?, ?, ?, ?, ?)",
			path, status, success,
			started.UTC().Format(time.RFC3339Nano),
			started.Add(time.Minute).UTC().Format(time.RFC3339Nano))
		if err != nil {
			t.Fatalf("insert execution: %v", err)
		}
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	insert("/rec/a.mpg", history.StatusCompleted, 1, base)
	insert("/rec/b.mpg", history.StatusCompleted, 0, base.Add(time.Hour))
	insert("/rec/c.mpg", history.StatusFailed, 0, base.Add(2*time.Hour))
	return path
}

func TestSQLStoreQueryFiltersStatus(t *testing.T) {
	store, err := history.OpenSQL(newHistoryDB(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	records, err := store.Query(context.Background(), history.Query{Status: history.StatusCompleted})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 completed records, got %d", len(records))
	}
	if records[0].Path != "/rec/b.mpg" {
		t.Fatalf("expected most recent first, got %s", records[0].Path)
	}
	if records[0].Success {
		t.Fatal("expected b.mpg to be unsuccessful")
	}
	if !records[1].Success {
		t.Fatal("expected a.mpg to be successful")
	}
	if records[1].StartedAt.IsZero() || records[1].EndedAt.IsZero() {
		t.Fatal("expected parsed timestamps")
	}
}

func TestSQLStoreQueryLimit(t *testing.T) {
	store, err := history.OpenSQL(newHistoryDB(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	records, err := store.Query(context.Background(), history.Query{Limit: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Path != "/rec/c.mpg" {
		t.Fatalf("expected newest record, got %s", records[0].Path)
	}
}

func TestSQLStorePurge(t *testing.T) {
	store, err := history.OpenSQLWritable(newHistoryDB(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	cutoff := time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC)
	purged, err := store.Purge(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		t.Fatalf("expected 2 purged records, got %d", purged)
	}

	records, err := store.Query(context.Background(), history.Query{})
	if err != nil {
		t.Fatalf("query after purge: %v", err)
	}
	if len(records) != 1 || records[0].Path != "/rec/c.mpg" {
		t.Fatalf("expected only c.mpg to remain, got %v", records)
	}
}
