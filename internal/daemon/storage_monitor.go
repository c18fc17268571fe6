package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"reclaim/internal/config"
	"reclaim/internal/logging"
)

// storageMonitor listens for udev netlink block-device events so the
// topology picks up drives that appear or vanish without waiting for the
// next scan. External recording disks on home DVR setups come and go.
type storageMonitor struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler func(ctx context.Context)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newStorageMonitor(cfg *config.Config, logger *slog.Logger, handler func(ctx context.Context)) *storageMonitor {
	return &storageMonitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "storage-monitor"),
		handler: handler,
	}
}

// Start begins listening for udev netlink events. Failure to connect is
// non-fatal: topology registration still happens at startup and before each
// scan.
func (m *storageMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; device changes detected at scan time only",
			logging.Error(err))
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("storage monitor started")
	return nil
}

// Stop shuts down the monitor.
func (m *storageMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
	m.logger.Info("storage monitor stopped")
}

// Running reports whether the monitor is active.
func (m *storageMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *storageMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("storage monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches whole-disk block device add/remove events. Partition
// events carry DEVTYPE=partition and are ignored; a disk appearing implies
// its partitions follow.
func (m *storageMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVTYPE":   "disk",
		},
	})
	return rules
}

func (m *storageMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := uevent.Env["DEVNAME"]
	m.logger.Info("block device change detected",
		logging.String(logging.FieldDevice, devname),
		logging.String("action", string(uevent.Action)))
	if m.handler != nil {
		m.handler(ctx)
	}
}
