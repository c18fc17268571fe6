package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reclaim/internal/daemon"
	"reclaim/internal/ipc"
)

func newQuarantineCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quarantine",
		Aliases: []string{"q"},
		Short:   "Manage quarantined files",
	}

	cmd.AddCommand(newQuarantineListCommand(ctx))
	cmd.AddCommand(newQuarantineRestoreCommand(ctx))
	cmd.AddCommand(newQuarantineDeleteCommand(ctx))
	cmd.AddCommand(newQuarantineStatsCommand(ctx))
	cmd.AddCommand(newQuarantineSweepCommand(ctx))
	cmd.AddCommand(newQuarantineReconcileCommand(ctx))
	return cmd
}

func newQuarantineListCommand(ctx *commandContext) *cobra.Command {
	var includeExpired bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quarantined files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QuarantineList(includeExpired)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Quarantine is empty")
					return nil
				}
				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.FileKind,
						item.OriginalPath,
						formatBytes(item.SizeBytes),
						formatTime(item.ExpiresAt),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Kind", "Original Path", "Size", "Expires"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&includeExpired, "expired", false, "Include items past their expiration")
	return cmd
}

func newQuarantineRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a quarantined file to its original location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QuarantineRestore(id)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Restored {
					fmt.Fprintf(stdout, "Item %d restored\n", id)
				} else {
					fmt.Fprintf(stdout, "Item %d could not be restored (not quarantined, file missing, or original path occupied)\n", id)
				}
				return nil
			})
		},
	}
}

func newQuarantineDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete a quarantined file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QuarantineDelete(id)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Deleted {
					fmt.Fprintf(stdout, "Item %d deleted\n", id)
				} else {
					fmt.Fprintf(stdout, "Item %d is not quarantined\n", id)
				}
				return nil
			})
		},
	}
}

func newQuarantineStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate quarantine statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QuarantineStats()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Items: %d\n", resp.Count)
				fmt.Fprintf(stdout, "Total size: %s\n", formatBytes(resp.TotalBytes))
				return nil
			})
		},
	}
}

func newQuarantineSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired quarantined files now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				started, err := client.SweepStart()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Sweep started (operation %s)\n", started.OperationID)
				return followOperation(stdout, client, daemon.OpDelete)
			})
		},
	}
}

func newQuarantineReconcileCommand(ctx *commandContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check quarantine records against their physical files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reconcile(apply)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Checked %d items, found %d ghost records\n", resp.Checked, len(resp.Ghosts))
				for _, ghost := range resp.Ghosts {
					fmt.Fprintf(stdout, "  %d: %s (file missing from quarantine)\n", ghost.ID, ghost.OriginalPath)
				}
				if apply {
					fmt.Fprintf(stdout, "Marked %d ghost records as deleted\n", resp.Marked)
				} else if len(resp.Ghosts) > 0 {
					fmt.Fprintln(stdout, "Run with --apply to mark ghost records as deleted")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Mark ghost records as deleted")
	return cmd
}
