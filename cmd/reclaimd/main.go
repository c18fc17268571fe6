// Command reclaimd is the reclaim background daemon. It runs the cleanup
// scheduler, the quarantine expiration sweeper, and the storage monitor, and
// serves the control socket the CLI talks to.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"reclaim/internal/config"
	"reclaim/internal/daemon"
	"reclaim/internal/fstopo"
	"reclaim/internal/history"
	"reclaim/internal/inventory"
	"reclaim/internal/ipc"
	"reclaim/internal/logging"
	"reclaim/internal/orphan"
	"reclaim/internal/quarantine"
	"reclaim/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "reclaim.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	topology := fstopo.New(cfg.Paths.FallbackQuarantineDir, logger)
	store, err := quarantine.Open(cfg, topology, logger)
	if err != nil {
		logger.Error("open quarantine store", logging.Error(err))
		return
	}

	hist := openHistory(cfg, logger)
	inv := inventoryService(cfg)
	detector := orphan.NewDetector(cfg, hist, store, logger)
	sched := scheduler.New(cfg, hist, detector, logger)

	d, err := daemon.New(cfg, store, topology, detector, sched, hist, inv, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	socketPath := filepath.Join(cfg.Paths.StateDir, "reclaimd.sock")
	ipcServer, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("reclaimd shutting down")
}

// openHistory opens the captioning pipeline's execution database, read-only
// unless history purging needs write access. A missing database disables
// history-based cleanup but not the rest of the daemon.
func openHistory(cfg *config.Config, logger *slog.Logger) history.Store {
	path := cfg.History.DBPath
	if path == "" {
		logger.Info("no execution history database configured; automatic cleanup disabled")
		return nil
	}
	open := history.OpenSQL
	if cfg.Cleanup.PurgeHistory {
		open = history.OpenSQLWritable
	}
	store, err := open(path)
	if err != nil {
		logger.Warn("execution history unavailable",
			logging.String(logging.FieldPath, path),
			logging.Error(err))
		return nil
	}
	return store
}

func inventoryService(cfg *config.Config) inventory.Service {
	client := inventory.NewClient(cfg)
	if client == nil {
		return nil
	}
	return client
}
