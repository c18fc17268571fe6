package fstopo

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sys/unix"

	"reclaim/internal/logging"
)

// QuarantineDirName is the hidden directory created at the root of the first
// registered scan path on each device.
const QuarantineDirName = ".reclaim-quarantine"

// ErrUnavailable reports that a path could not be registered: it does not
// exist or its quarantine directory could not be created. Callers fall back
// to the global quarantine directory.
var ErrUnavailable = errors.New("filesystem unavailable")

// Filesystem describes one storage device hosting registered scan paths.
type Filesystem struct {
	DeviceID      uint64
	QuarantineDir string
	ScanPaths     []string
	TotalBytes    uint64
	FreeBytes     uint64
	UsedBytes     uint64
	// UsageKnown is false when the capacity query failed (unsupported
	// filesystem); the byte fields are zero in that case.
	UsageKnown bool
}

// Topology tracks registered scan paths per device and resolves quarantine
// directory placement.
type Topology struct {
	fallbackDir string
	logger      *slog.Logger

	// Injectable for tests; production uses unix.Stat / unix.Statfs.
	deviceID func(path string) (uint64, error)
	statfs   func(path string) (total, free uint64, err error)

	mu      sync.Mutex
	devices map[uint64]*Filesystem
}

// New constructs a topology with the given global fallback quarantine
// directory.
func New(fallbackDir string, logger *slog.Logger) *Topology {
	return &Topology{
		fallbackDir: fallbackDir,
		logger:      logging.NewComponentLogger(logger, "fstopo"),
		deviceID:    realDeviceID,
		statfs:      realStatfs,
		devices:     make(map[uint64]*Filesystem),
	}
}

// Register stats the path and ensures its device has a quarantine directory.
// The first path registered on a device hosts the directory; later paths on
// the same device join its scan-path set. Registration fails soft with
// ErrUnavailable when the path is missing or the directory cannot be created.
func (t *Topology) Register(path string) (*Filesystem, error) {
	dev, err := t.deviceID(path)
	if err != nil {
		t.logger.Warn("scan path unavailable, fallback quarantine will be used",
			logging.String(logging.FieldPath, path), logging.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if fs, ok := t.devices[dev]; ok {
		for _, known := range fs.ScanPaths {
			if known == path {
				return fs.snapshot(), nil
			}
		}
		fs.ScanPaths = append(fs.ScanPaths, path)
		return fs.snapshot(), nil
	}

	quarantineDir := filepath.Join(path, QuarantineDirName)
	if err := os.MkdirAll(quarantineDir, 0o755); err != nil {
		t.logger.Warn("quarantine directory create failed, fallback will be used",
			logging.String(logging.FieldPath, quarantineDir), logging.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
	}

	fs := &Filesystem{
		DeviceID:      dev,
		QuarantineDir: quarantineDir,
		ScanPaths:     []string{path},
	}
	fs.refreshUsage(t.statfs, path)
	t.devices[dev] = fs
	t.logger.Info("registered filesystem",
		logging.Uint64(logging.FieldDevice, dev),
		logging.String("quarantine_dir", quarantineDir))
	return fs.snapshot(), nil
}

// QuarantineDirFor resolves the quarantine directory for the device hosting
// filePath. If the file itself is already gone its parent directory decides;
// unknown devices resolve to the global fallback directory.
func (t *Topology) QuarantineDirFor(filePath string) string {
	dev, err := t.deviceID(filePath)
	if err != nil {
		dev, err = t.deviceID(filepath.Dir(filePath))
	}
	if err != nil {
		return t.fallbackDir
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if fs, ok := t.devices[dev]; ok {
		return fs.QuarantineDir
	}
	return t.fallbackDir
}

// FallbackDir returns the global fallback quarantine directory.
func (t *Topology) FallbackDir() string {
	return t.fallbackDir
}

// RefreshUsage recomputes capacity snapshots for every registered device.
func (t *Topology) RefreshUsage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, fs := range t.devices {
		if len(fs.ScanPaths) == 0 {
			continue
		}
		fs.refreshUsage(t.statfs, fs.ScanPaths[0])
	}
}

// Filesystems returns a snapshot of all registered devices ordered by their
// first scan path.
func (t *Topology) Filesystems() []Filesystem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Filesystem, 0, len(t.devices))
	for _, fs := range t.devices {
		out = append(out, *fs.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScanPaths[0] < out[j].ScanPaths[0]
	})
	return out
}

func (fs *Filesystem) refreshUsage(statfs func(string) (uint64, uint64, error), probePath string) {
	total, free, err := statfs(probePath)
	if err != nil {
		fs.UsageKnown = false
		fs.TotalBytes, fs.FreeBytes, fs.UsedBytes = 0, 0, 0
		return
	}
	fs.UsageKnown = true
	fs.TotalBytes = total
	fs.FreeBytes = free
	if total >= free {
		fs.UsedBytes = total - free
	}
}

func (fs *Filesystem) snapshot() *Filesystem {
	cp := *fs
	cp.ScanPaths = append([]string(nil), fs.ScanPaths...)
	return &cp
}

func realDeviceID(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return uint64(st.Dev), nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
