// Package inventory fetches the DVR's authoritative file listings.
//
// The DVR owns this data; reclaim reads it to reconcile against the real
// folder tree. Fetches carry a bounded timeout and are never retried here: a
// failed fetch fails the whole audit call, surfaced to the caller.
package inventory
