package orphan

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"reclaim/internal/config"
	"reclaim/internal/fileutil"
	"reclaim/internal/history"
	"reclaim/internal/logging"
	"reclaim/internal/quarantine"
)

// Found pairs an orphaned file with the recording it once belonged to.
type Found struct {
	Path      string
	Kind      quarantine.FileKind
	Recording string
}

// Detector locates orphaned .orig and .srt files.
type Detector struct {
	cfg     *config.Config
	history history.Store
	store   *quarantine.Store
	logger  *slog.Logger
}

// NewDetector wires a detector. The history store may be nil, which disables
// the history-based path (DetectFromHistory returns an error).
func NewDetector(cfg *config.Config, hist history.Store, store *quarantine.Store, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{
		cfg:     cfg,
		history: hist,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "orphan"),
	}
}

// DetectFromHistory reports orphans tied to completed, successful executions
// whose recording no longer exists on disk. This is the only detector safe
// for unattended cleanup: every result is provably a leftover of a finished
// job.
func (d *Detector) DetectFromHistory(ctx context.Context) ([]Found, error) {
	if d.history == nil {
		return nil, fmt.Errorf("execution history not configured")
	}
	records, err := d.history.Query(ctx, history.Query{Status: history.StatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("query execution history: %w", err)
	}

	seen := make(map[string]struct{}, len(records))
	var found []Found
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !record.Success {
			continue
		}
		recording := strings.TrimSpace(record.Path)
		if recording == "" {
			continue
		}
		if _, dup := seen[recording]; dup {
			continue
		}
		seen[recording] = struct{}{}
		if fileutil.PathExists(recording) {
			continue
		}
		found = append(found, siblingsOf(recording)...)
	}

	d.logger.Debug("history detection finished",
		logging.Int("records", len(records)),
		logging.Int("orphans", len(found)))
	return found, nil
}

// siblingsOf returns the companion files of an absent recording that are
// still on disk.
func siblingsOf(recording string) []Found {
	var found []Found
	orig := recording + ".orig"
	if fileutil.PathExists(orig) {
		found = append(found, Found{Path: orig, Kind: quarantine.KindOrig, Recording: recording})
	}
	stem := strings.TrimSuffix(recording, filepath.Ext(recording))
	srt := stem + ".srt"
	if fileutil.PathExists(srt) {
		found = append(found, Found{Path: srt, Kind: quarantine.KindSrt, Recording: recording})
	}
	return found
}
