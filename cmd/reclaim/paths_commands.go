package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reclaim/internal/ipc"
)

func newPathsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Manage deep-scan root folders",
	}

	cmd.AddCommand(newPathsListCommand(ctx))
	cmd.AddCommand(newPathsAddCommand(ctx))
	cmd.AddCommand(newPathsEnableCommand(ctx, true))
	cmd.AddCommand(newPathsEnableCommand(ctx, false))
	cmd.AddCommand(newPathsRemoveCommand(ctx))
	return cmd
}

func newPathsListCommand(ctx *commandContext) *cobra.Command {
	var enabledOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured scan roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PathsList(enabledOnly)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Paths) == 0 {
					fmt.Fprintln(stdout, "No scan roots configured")
					return nil
				}
				rows := make([][]string, 0, len(resp.Paths))
				for _, sp := range resp.Paths {
					rows = append(rows, []string{
						strconv.FormatInt(sp.ID, 10),
						sp.Label,
						sp.Path,
						yesNo(sp.Enabled),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Label", "Path", "Enabled"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Only list enabled roots")
	return cmd
}

func newPathsAddCommand(ctx *commandContext) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a folder for deep scanning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if label == "" {
				label = defaultPathLabel(path)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PathAdd(path, label)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added scan root %s (%s)\n", resp.Path.Path, resp.Path.Label)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Display label for the root (defaults to the folder name)")
	return cmd
}

// defaultPathLabel derives a human label from the last path element.
func defaultPathLabel(path string) string {
	base := filepath.Base(path)
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English).String(base)
}

func newPathsEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short := "enable <path>", "Enable a scan root"
	if !enable {
		use, short = "disable <path>", "Disable a scan root without removing it"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PathSetEnabled(path, enable)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Updated {
					fmt.Fprintf(stdout, "Scan root %s is not configured\n", path)
					return nil
				}
				state := "enabled"
				if !enable {
					state = "disabled"
				}
				fmt.Fprintf(stdout, "Scan root %s %s\n", path, state)
				return nil
			})
		},
	}
}

func newPathsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a scan root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PathRemove(path)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Removed {
					fmt.Fprintf(stdout, "Removed scan root %s\n", path)
				} else {
					fmt.Fprintf(stdout, "Scan root %s is not configured\n", path)
				}
				return nil
			})
		},
	}
}
