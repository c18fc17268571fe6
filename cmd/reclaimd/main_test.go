package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"reclaim/internal/config"
	"reclaim/internal/logging"
)

func newPipelineDB(t *testing.T) string {
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
	return path
}

func TestOpenHistoryDisabledWithoutDBPath(t *testing.T) {
	cfg := &config.Config{}
	if store := openHistory(cfg, logging.NewNop()); store != nil {
		t.Fatal("openHistory without a configured path should return nil")
	}
}

func TestOpenHistoryModeFollowsPurgeSetting(t *testing.T) {
	path := newPipelineDB(t)
	logger := logging.NewNop()
	cutoff := time.Now()

	readCfg := &config.Config{}
	readCfg.History.DBPath = path
	readOnly := openHistory(readCfg, logger)
	if readOnly == nil {
		t.Fatal("openHistory should open a configured database")
	}
	if _, err := readOnly.Purge(context.Background(), cutoff); err == nil {
		t.Error("purge against a read-only history store should fail")
	}

	purgeCfg := &config.Config{}
	purgeCfg.History.DBPath = path
	purgeCfg.Cleanup.PurgeHistory = true
	writable := openHistory(purgeCfg, logger)
	if writable == nil {
		t.Fatal("openHistory should open a configured database")
	}
	if _, err := writable.Purge(context.Background(), cutoff); err != nil {
		t.Errorf("purge with purge_history enabled should succeed: %v", err)
	}
}
