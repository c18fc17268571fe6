// Package fstopo maps paths to their underlying storage devices and places
// one quarantine directory on each device that hosts registered scan paths.
//
// Quarantining is a move, not a copy-then-delete. Keeping the quarantine
// directory on the same device as the data it shelters makes that move an
// atomic rename, which matters when relocating multi-gigabyte recording
// backups. Files on devices the topology has never seen fall back to a single
// global quarantine directory, and moves into it may cross devices; Analysis
// flags that condition so operators can register the missing path instead.
package fstopo
