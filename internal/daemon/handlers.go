package daemon

import (
	"context"
	"errors"
	"fmt"

	"reclaim/internal/audit"
	"reclaim/internal/logging"
	"reclaim/internal/orphan"
	"reclaim/internal/quarantine"
)

// ScanOutcome is the final result of a deep scan operation.
type ScanOutcome struct {
	DryRun         bool  `json:"dry_run"`
	OrigCount      int   `json:"orig_count"`
	SrtCount       int   `json:"srt_count"`
	Quarantined    int   `json:"quarantined"`
	BytesRecovered int64 `json:"bytes_recovered"`
	FoldersScanned int   `json:"folders_scanned"`
	Cancelled      bool  `json:"cancelled"`
}

// SweepOutcome is the final result of an expiration sweep operation.
type SweepOutcome struct {
	Removed   int  `json:"removed"`
	Cancelled bool `json:"cancelled"`
}

// StartScan launches a deep filesystem scan over the enabled scan roots in
// the background and returns its operation id. Under dry-run nothing is
// moved. The scan lock serializes it against the scheduler and against scans
// from other processes.
func (d *Daemon) StartScan(dryRun bool) (string, error) {
	parent, err := d.acquireWorker()
	if err != nil {
		return "", err
	}
	op, ctx, err := d.ops.begin(parent, OpScan)
	if err != nil {
		d.wg.Done()
		return "", err
	}

	go func() {
		defer d.wg.Done()
		outcome, err := d.runScan(ctx, op, dryRun)
		op.finish(outcome, err)
	}()
	return op.id, nil
}

func (d *Daemon) runScan(ctx context.Context, op *operation, dryRun bool) (*ScanOutcome, error) {
	locked, err := d.scanLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another scan is already in progress")
	}
	defer func() {
		if err := d.scanLock.Unlock(); err != nil {
			d.logger.Warn("failed to release scan lock", logging.Error(err))
		}
	}()

	roots := []string{d.cfg.Paths.RecordingsDir}
	if paths, err := d.store.ListScanPaths(ctx, true); err == nil {
		for _, sp := range paths {
			roots = append(roots, sp.Path)
		}
	}

	result, err := d.detector.ScanFilesystem(ctx, roots, func(p orphan.Progress) {
		op.setProgress(OpProgress{
			Phase:   p.Phase,
			Current: p.Current,
			Total:   p.Total,
			Detail:  p.Folder,
			Found:   p.OrphansFound,
		})
	})
	if err != nil {
		return nil, err
	}

	outcome := &ScanOutcome{
		DryRun:         dryRun,
		OrigCount:      len(result.OrigFiles),
		SrtCount:       len(result.SrtFiles),
		FoldersScanned: result.FoldersScanned,
		Cancelled:      result.Cancelled,
	}
	if result.Cancelled {
		return outcome, nil
	}

	for _, found := range result.Orphans() {
		if ctx.Err() != nil {
			outcome.Cancelled = true
			return outcome, nil
		}
		if dryRun {
			d.logger.Info("would quarantine orphan",
				logging.String(logging.FieldPath, found.Path),
				logging.String("kind", string(found.Kind)),
				logging.Bool(logging.FieldDryRun, true))
			continue
		}
		item, err := d.store.Quarantine(ctx, found.Path, found.Kind,
			"found by deep scan", found.Recording, d.cfg.Cleanup.ExpirationDays)
		if err != nil {
			d.logger.Error("quarantine failed",
				logging.String(logging.FieldPath, found.Path),
				logging.Error(err))
			continue
		}
		outcome.Quarantined++
		outcome.BytesRecovered += item.SizeBytes
	}
	return outcome, nil
}

// StartAudit launches an inventory audit in the background and returns its
// operation id.
func (d *Daemon) StartAudit(includeDeleted bool) (string, error) {
	if d.inventory == nil {
		return "", errors.New("inventory service not configured")
	}
	parent, err := d.acquireWorker()
	if err != nil {
		return "", err
	}
	op, ctx, err := d.ops.begin(parent, OpAudit)
	if err != nil {
		d.wg.Done()
		return "", err
	}

	go func() {
		defer d.wg.Done()
		report, err := audit.Run(ctx, audit.Params{
			Inventory:      d.inventory,
			RecordingsRoot: d.cfg.Paths.RecordingsDir,
			IncludeDeleted: includeDeleted,
			Logger:         d.logger,
			Progress: func(p audit.Progress) {
				op.setProgress(OpProgress{
					Phase:   p.Phase,
					Current: p.Current,
					Total:   p.Total,
					Detail:  p.Detail,
				})
			},
		})
		op.finish(report, err)
	}()
	return op.id, nil
}

// StartSweep launches an expiration sweep as a cancellable delete operation,
// removing expired quarantine items one at a time.
func (d *Daemon) StartSweep() (string, error) {
	parent, err := d.acquireWorker()
	if err != nil {
		return "", err
	}
	op, ctx, err := d.ops.begin(parent, OpDelete)
	if err != nil {
		d.wg.Done()
		return "", err
	}

	go func() {
		defer d.wg.Done()
		outcome, err := d.runSweep(ctx, op)
		op.finish(outcome, err)
	}()
	return op.id, nil
}

func (d *Daemon) runSweep(ctx context.Context, op *operation) (*SweepOutcome, error) {
	expired, err := d.store.ListExpired(ctx)
	if err != nil {
		return nil, err
	}
	outcome := &SweepOutcome{}
	for i, item := range expired {
		if ctx.Err() != nil {
			outcome.Cancelled = true
			return outcome, nil
		}
		removed, err := d.store.Delete(ctx, item.ID)
		if err != nil {
			d.logger.Error("deleting expired item failed",
				logging.Int64("item_id", item.ID),
				logging.Error(err))
			continue
		}
		if removed {
			outcome.Removed++
		}
		op.setProgress(OpProgress{
			Phase:   "deleting",
			Current: i + 1,
			Total:   len(expired),
			Detail:  item.OriginalPath,
		})
	}
	return outcome, nil
}

// RunCleanupNow triggers one manual cleanup pass through the history
// detector, bypassing the scheduler gates but still honoring the scan lock.
func (d *Daemon) RunCleanupNow(ctx context.Context, dryRun bool) (*orphan.CleanupResult, error) {
	locked, err := d.scanLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another scan is already in progress")
	}
	defer func() {
		if err := d.scanLock.Unlock(); err != nil {
			d.logger.Warn("failed to release scan lock", logging.Error(err))
		}
	}()
	return d.detector.RunCleanup(ctx, dryRun, d.cfg.Cleanup.PurgeHistory)
}

// Reconcile checks quarantine records against their physical files.
func (d *Daemon) Reconcile(ctx context.Context, apply bool) (quarantine.ReconcileReport, error) {
	return d.store.Reconcile(ctx, apply)
}
