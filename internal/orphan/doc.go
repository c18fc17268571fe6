// Package orphan finds leftover pipeline files whose recordings are gone.
//
// Two detectors exist. The history detector only reports files tied to a
// known, successfully completed execution, which makes it safe to act on
// automatically. The filesystem detector walks configured scan roots
// exhaustively and is meant for operator-triggered deep scans.
package orphan
