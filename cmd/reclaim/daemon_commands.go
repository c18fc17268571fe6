package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reclaim/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the reclaim daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			if client, err := ctx.dialClient(); err == nil {
				client.Close()
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if err := launchDaemon(exe, ctx); err != nil {
				return err
			}
			if err := waitForSocket(ctx, 10*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the reclaim daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			defer client.Close()
			if _, err := client.Stop(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, quarantine, and storage status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

// daemonExecutable locates reclaimd next to the current binary, falling back
// to PATH lookup.
func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(self), "reclaimd")
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	path, err := exec.LookPath("reclaimd")
	if err != nil {
		return "", fmt.Errorf("reclaimd executable not found next to reclaim or in PATH")
	}
	return path, nil
}

func launchDaemon(exe string, ctx *commandContext) error {
	args := []string{}
	if ctx.configFlag != nil && *ctx.configFlag != "" {
		args = append(args, "--config", *ctx.configFlag)
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	// Detach: the daemon outlives this CLI invocation.
	return cmd.Process.Release()
}

func waitForSocket(ctx *commandContext, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ctx.dialClient()
		if err == nil {
			client.Close()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not come up within %s", timeout)
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Status()
		if err != nil {
			return err
		}
		status := resp.Status
		stdout := cmd.OutOrStdout()
		colorize := shouldColorize(stdout)

		for _, line := range renderSectionHeader("Daemon", colorize) {
			fmt.Fprintln(stdout, line)
		}
		runningText := colorizeOK("running", colorize)
		if !status.Running {
			runningText = colorizeError("stopped", colorize)
		}
		fmt.Fprintf(stdout, "  State:    %s (pid %d)\n", runningText, status.PID)
		fmt.Fprintf(stdout, "  Database: %s\n", status.DatabasePath)
		fmt.Fprintln(stdout)

		for _, line := range renderSectionHeader("Quarantine", colorize) {
			fmt.Fprintln(stdout, line)
		}
		fmt.Fprintf(stdout, "  Items: %d (%s)\n", status.Quarantine.Count, formatBytes(status.Quarantine.TotalBytes))
		fmt.Fprintln(stdout)

		for _, line := range renderSectionHeader("Scheduler", colorize) {
			fmt.Fprintln(stdout, line)
		}
		settings := status.Scheduler.Settings
		fmt.Fprintf(stdout, "  Enabled:      %s\n", yesNo(settings.Enabled))
		fmt.Fprintf(stdout, "  Dry run:      %s\n", yesNo(settings.DryRun))
		fmt.Fprintf(stdout, "  Last check:   %s\n", formatTime(status.Scheduler.LastCheck))
		fmt.Fprintf(stdout, "  Last cleanup: %s\n", formatTime(status.Scheduler.LastCleanup))
		fmt.Fprintln(stdout)

		for _, line := range renderSectionHeader("Storage", colorize) {
			fmt.Fprintln(stdout, line)
		}
		if len(status.Storage.Filesystems) == 0 {
			fmt.Fprintln(stdout, "  No registered devices")
		}
		rows := make([][]string, 0, len(status.Storage.Filesystems))
		for _, fs := range status.Storage.Filesystems {
			usage := "unknown"
			if fs.UsageKnown && fs.TotalBytes > 0 {
				usage = fmt.Sprintf("%s free of %s",
					formatBytes(int64(fs.FreeBytes)), formatBytes(int64(fs.TotalBytes)))
			}
			rows = append(rows, []string{
				strconv.FormatUint(fs.DeviceID, 10),
				fs.ScanPaths[0],
				fs.QuarantineDir,
				usage,
			})
		}
		if len(rows) > 0 {
			fmt.Fprintln(stdout, renderTable(
				[]string{"Device", "Scan Path", "Quarantine Dir", "Capacity"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
		}
		for _, warning := range status.Storage.Warnings {
			fmt.Fprintf(stdout, "  %s\n", colorizeWarn(warning, colorize))
		}

		if len(status.Operations) > 0 {
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Operations", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, op := range status.Operations {
				state := "finished"
				if op.Running {
					state = "running"
				} else if op.Cancelled {
					state = "cancelled"
				}
				fmt.Fprintf(stdout, "  %-6s %s (started %s)\n", op.Kind, state, formatTime(op.StartedAt))
			}
		}
		return nil
	})
}
