package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reclaim/internal/ipc"
)

func newSchedulerCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Inspect and adjust automatic cleanup scheduling",
	}

	cmd.AddCommand(newSchedulerShowCommand(ctx))
	cmd.AddCommand(newSchedulerSetCommand(ctx))
	return cmd
}

func newSchedulerShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show scheduler state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SchedulerGet()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				settings := resp.Status.Settings
				fmt.Fprintf(stdout, "Enabled:        %s\n", yesNo(settings.Enabled))
				fmt.Fprintf(stdout, "Check interval: %s\n", settings.CheckInterval)
				fmt.Fprintf(stdout, "Idle threshold: %s\n", settings.IdleThreshold)
				fmt.Fprintf(stdout, "Dry run:        %s\n", yesNo(settings.DryRun))
				fmt.Fprintf(stdout, "Purge history:  %s\n", yesNo(settings.PurgeHistory))
				fmt.Fprintf(stdout, "Last check:     %s\n", formatTime(resp.Status.LastCheck))
				fmt.Fprintf(stdout, "Last cleanup:   %s\n", formatTime(resp.Status.LastCleanup))
				return nil
			})
		},
	}
}

func newSchedulerSetCommand(ctx *commandContext) *cobra.Command {
	var enable, disable, dryRun, noDryRun bool
	var checkInterval, idleThreshold time.Duration

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Adjust scheduler settings at runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}
			if dryRun && noDryRun {
				return fmt.Errorf("--dry-run and --no-dry-run are mutually exclusive")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				current, err := client.SchedulerGet()
				if err != nil {
					return err
				}
				settings := current.Status.Settings
				if enable {
					settings.Enabled = true
				}
				if disable {
					settings.Enabled = false
				}
				if dryRun {
					settings.DryRun = true
				}
				if noDryRun {
					settings.DryRun = false
				}
				if cmd.Flags().Changed("check-interval") {
					settings.CheckInterval = checkInterval
				}
				if cmd.Flags().Changed("idle-threshold") {
					settings.IdleThreshold = idleThreshold
				}
				resp, err := client.SchedulerSet(ipc.SchedulerSetRequest{Settings: settings})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Scheduler enabled=%s check_interval=%s idle_threshold=%s dry_run=%s\n",
					yesNo(resp.Settings.Enabled), resp.Settings.CheckInterval,
					resp.Settings.IdleThreshold, yesNo(resp.Settings.DryRun))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable automatic cleanup")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable automatic cleanup")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Switch automatic cleanup to dry-run")
	cmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "Switch automatic cleanup to real runs")
	cmd.Flags().DurationVar(&checkInterval, "check-interval", 0, "Minimum time between cleanup passes (e.g. 6h)")
	cmd.Flags().DurationVar(&idleThreshold, "idle-threshold", 0, "Required pipeline idle time before cleanup (e.g. 30m)")
	return cmd
}
