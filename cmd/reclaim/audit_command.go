package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reclaim/internal/daemon"
	"reclaim/internal/ipc"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var includeDeleted bool
	var detach bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Reconcile the DVR inventory against the recordings tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				started, err := client.AuditStart(includeDeleted)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Audit started (operation %s)\n", started.OperationID)
				if detach {
					fmt.Fprintln(stdout, "Poll progress with `reclaim audit status`")
					return nil
				}
				return followOperation(stdout, client, daemon.OpAudit)
			})
		},
	}
	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", true, "Fetch the DVR trash listing to tag known-deleted files")
	cmd.Flags().BoolVar(&detach, "detach", false, "Start the audit and return immediately")

	cmd.AddCommand(newAuditStatusCommand(ctx))
	return cmd
}

func newAuditStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the latest audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				return printOperationStatus(cmd.OutOrStdout(), client, daemon.OpAudit)
			})
		},
	}
}
