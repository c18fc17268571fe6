package testsupport

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"reclaim/internal/quarantine"
)

// BackdateExpiry rewrites an item's expires_at so sweeper tests can age rows
// without sleeping. It opens a second connection to the store's database.
func BackdateExpiry(t testing.TB, store *quarantine.Store, id int64, expiry time.Time) {
	t.Helper()

	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open store db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(
		"UPDATE quarantine_items SET expires_at = ? WHERE id = ?",
		expiry.UTC().Format(time.RFC3339Nano), id,
	); err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}
}
