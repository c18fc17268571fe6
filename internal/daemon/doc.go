// Package daemon coordinates the background services: the cleanup scheduler
// loop, the quarantine expiration sweeper, the storage-device monitor, and
// operator-triggered scan and audit operations. It enforces single-instance
// execution through a lock file and serializes filesystem-mutating scans
// across processes through a second scan lock.
package daemon
