package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"reclaim/internal/daemon"
	"reclaim/internal/ipc"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var detach bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a deep filesystem scan for orphaned files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				started, err := client.ScanStart(dryRun)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Scan started (operation %s)\n", started.OperationID)
				if detach {
					fmt.Fprintln(stdout, "Poll progress with `reclaim scan status`")
					return nil
				}
				return followOperation(stdout, client, daemon.OpScan)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be quarantined without moving anything")
	cmd.Flags().BoolVar(&detach, "detach", false, "Start the scan and return immediately")

	cmd.AddCommand(newScanStatusCommand(ctx))
	return cmd
}

func newScanStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the latest scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				return printOperationStatus(cmd.OutOrStdout(), client, daemon.OpScan)
			})
		},
	}
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run a history-based cleanup pass now",
		Long: "Quarantines leftover .orig and .srt files whose recordings were " +
			"processed successfully and have since disappeared. Bypasses the " +
			"scheduler gates but still serializes with other scans.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CleanupRun(dryRun)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				result := resp.Result
				verb := "Quarantined"
				if result.DryRun {
					verb = "Would quarantine"
				}
				fmt.Fprintf(stdout, "%s %d .orig and %d .srt files (%s)\n",
					verb, result.OrigCount, result.SrtCount, formatBytes(result.BytesRecovered))
				if result.HistoryPurged > 0 {
					fmt.Fprintf(stdout, "Purged %d old execution records\n", result.HistoryPurged)
				}
				for _, failure := range result.Failures {
					fmt.Fprintf(stdout, "Failed: %s\n", failure)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be quarantined without moving anything")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "cancel <scan|delete|audit>",
		Short:     "Cancel a running operation",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"scan", "delete", "audit"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := daemon.OpKind(args[0])
			switch kind {
			case daemon.OpScan, daemon.OpDelete, daemon.OpAudit:
			default:
				return fmt.Errorf("unknown operation kind %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.OperationCancel(kind)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Cancelled {
					fmt.Fprintf(stdout, "Cancelled %s operation\n", kind)
				} else {
					fmt.Fprintf(stdout, "No %s operation running\n", kind)
				}
				return nil
			})
		},
	}
}

// followOperation polls the daemon until the operation finishes, rewriting a
// single progress line.
func followOperation(out io.Writer, client *ipc.Client, kind daemon.OpKind) error {
	for {
		resp, err := client.OperationStatus(kind)
		if err != nil {
			return err
		}
		if !resp.Known {
			return fmt.Errorf("no %s operation found", kind)
		}
		status := resp.Status
		if status.Running {
			p := status.Progress
			if p.Total > 0 {
				fmt.Fprintf(out, "\r%s %d/%d (%d found)    ", p.Phase, p.Current, p.Total, p.Found)
			} else if p.Phase != "" {
				fmt.Fprintf(out, "\r%s %d (%d found)    ", p.Phase, p.Current, p.Found)
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		fmt.Fprintln(out)
		return printFinishedOperation(out, status)
	}
}

func printOperationStatus(out io.Writer, client *ipc.Client, kind daemon.OpKind) error {
	resp, err := client.OperationStatus(kind)
	if err != nil {
		return err
	}
	if !resp.Known {
		fmt.Fprintf(out, "No %s operation has run\n", kind)
		return nil
	}
	status := resp.Status
	if status.Running {
		p := status.Progress
		fmt.Fprintf(out, "Running: %s %d/%d (%d found)\n", p.Phase, p.Current, p.Total, p.Found)
		return nil
	}
	return printFinishedOperation(out, status)
}

func printFinishedOperation(out io.Writer, status daemon.OperationStatus) error {
	switch {
	case status.Error != "":
		return fmt.Errorf("%s operation failed: %s", status.Kind, status.Error)
	case status.Cancelled:
		fmt.Fprintf(out, "%s operation cancelled\n", status.Kind)
	default:
		fmt.Fprintf(out, "%s operation completed in %s\n",
			status.Kind, status.EndedAt.Sub(status.StartedAt).Round(time.Millisecond))
	}
	if status.Result != nil {
		printResult(out, status.Result)
	}
	return nil
}

// printResult renders the operation result, which arrives as decoded JSON.
func printResult(out io.Writer, result any) {
	m, ok := result.(map[string]any)
	if !ok {
		return
	}
	if v, ok := m["orig_count"]; ok {
		fmt.Fprintf(out, "  .orig files: %v\n", v)
	}
	if v, ok := m["srt_count"]; ok {
		fmt.Fprintf(out, "  .srt files: %v\n", v)
	}
	if v, ok := m["quarantined"]; ok {
		fmt.Fprintf(out, "  quarantined: %v\n", v)
	}
	if v, ok := m["removed"]; ok {
		fmt.Fprintf(out, "  removed: %v\n", v)
	}
	if v, ok := m["missing_files"]; ok {
		if files, ok := v.([]any); ok {
			fmt.Fprintf(out, "  missing files: %d\n", len(files))
		}
	}
	if v, ok := m["orphaned_files"]; ok {
		if files, ok := v.([]any); ok {
			fmt.Fprintf(out, "  orphaned files: %d\n", len(files))
		}
	}
	if v, ok := m["empty_folders"]; ok {
		if folders, ok := v.([]any); ok {
			fmt.Fprintf(out, "  empty folders: %d\n", len(folders))
		}
	}
}
