package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"reclaim/internal/config"
	"reclaim/internal/ipc"
)

const socketName = "reclaimd.sock"

// commandContext carries lazily-loaded configuration and the daemon socket
// location shared by every CLI command.
type commandContext struct {
	socketFlag *string
	configFlag *string

	loadOnce sync.Once
	cfg      *config.Config
	loadErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{socketFlag: socketFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.loadOnce.Do(func() { c.cfg, c.loadErr = c.loadConfig() })
	return c.cfg, c.loadErr
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// socketPath resolves the daemon socket: explicit --socket flag first, then
// the configured state dir, then a best-effort default.
func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return *c.socketFlag
	}
	if cfg := c.configValue(); cfg != nil {
		return filepath.Join(cfg.Paths.StateDir, socketName)
	}
	if stateDir, err := config.ExpandPath("~/.local/share/reclaim"); err == nil {
		return filepath.Join(stateDir, socketName)
	}
	return filepath.Join(os.TempDir(), socketName)
}

// withClient dials the daemon, runs fn, and closes the connection. Dial
// failures are translated into operator-actionable messages.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err == nil {
		return client, nil
	}
	if errors.Is(err, syscall.ENOENT) || os.IsNotExist(err) {
		return nil, fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `reclaim start`", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return nil, fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	}
	return nil, fmt.Errorf("connect to daemon: %w", err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
