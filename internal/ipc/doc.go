// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
// The CLI is the primary client: it triggers scans and audits, polls their
// progress, manages quarantine items and scan paths, and adjusts the
// cleanup scheduler at runtime.
package ipc
