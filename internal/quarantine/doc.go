// Package quarantine persists reversibly-relocated files in SQLite and owns
// their physical bytes once quarantined.
//
// Orphaned files are never deleted in place: they move into a per-device
// quarantine directory (resolved by fstopo) and a record tracks where the
// file came from, where it now sits, and its lifecycle status. The only legal
// transitions are quarantined->restored and quarantined->deleted. Expired
// items are removed by the sweeper; ghost records, where the database says
// quarantined but the file is gone, are surfaced by Reconcile and only
// marked deleted when an operator asks.
//
// The store also keeps the append-only cleanup-run log, whose oldest entry
// bounds how far execution history may be purged, and the operator's deep
// scan path configuration. Schema changes bump the version in schema.go.
package quarantine
