package fstopo

import (
	"fmt"

	"reclaim/internal/logging"
)

// lowSpaceThreshold is the free-space fraction below which a device warning
// is emitted.
const lowSpaceThreshold = 0.10

// Report summarizes quarantine placement across registered devices.
type Report struct {
	Filesystems []Filesystem
	// FallbackIsolated is true when the fallback quarantine directory lives
	// on a device disjoint from every registered scan path, meaning fallback
	// quarantines pay for slow cross-device copies.
	FallbackIsolated bool
	Warnings         []string
}

// Analysis refreshes usage and reports placement problems: devices running
// low on space and an isolated fallback directory.
func (t *Topology) Analysis() Report {
	t.RefreshUsage()

	report := Report{Filesystems: t.Filesystems()}

	for _, fs := range report.Filesystems {
		if !fs.UsageKnown || fs.TotalBytes == 0 {
			continue
		}
		freeFraction := float64(fs.FreeBytes) / float64(fs.TotalBytes)
		if freeFraction < lowSpaceThreshold {
			warning := fmt.Sprintf("device %d (%s) is below %d%% free space",
				fs.DeviceID, fs.ScanPaths[0], int(lowSpaceThreshold*100))
			report.Warnings = append(report.Warnings, warning)
			t.logger.Warn("device low on space",
				logging.Uint64(logging.FieldDevice, fs.DeviceID),
				logging.Uint64("free_bytes", fs.FreeBytes),
				logging.Uint64("total_bytes", fs.TotalBytes))
		}
	}

	if dev, err := t.deviceID(t.fallbackDir); err == nil {
		matched := false
		for _, fs := range report.Filesystems {
			if fs.DeviceID == dev {
				matched = true
				break
			}
		}
		if !matched && len(report.Filesystems) > 0 {
			report.FallbackIsolated = true
			warning := fmt.Sprintf("fallback quarantine directory %s shares no device with any registered scan path; fallback quarantines will copy across devices", t.fallbackDir)
			report.Warnings = append(report.Warnings, warning)
			t.logger.Warn("fallback quarantine directory is isolated",
				logging.String(logging.FieldPath, t.fallbackDir))
		}
	}

	return report
}
