package main

import (
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage external event hooks (spec §4.9 hook-* commands)",
}

func init() {
	hookCmd.AddCommand(
		hookListCmd(),
		hookAddCmd(),
		hookRemoveCmd(),
	)
}

func hookListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("hook-list", nil)
		},
	}
}

func hookAddCmd() *cobra.Command {
	var id, path string
	var timeoutMs int64
	c := &cobra.Command{
		Use:   "add",
		Short: "Register a hook executable",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]interface{}{"id": id, "path": path}
			if timeoutMs > 0 {
				fields["timeout_ms"] = timeoutMs
			}
			return run("hook-add", fields)
		},
	}
	c.Flags().StringVar(&id, "id", "", "hook id")
	c.Flags().StringVar(&path, "path", "", "path to the hook executable")
	c.Flags().Int64Var(&timeoutMs, "timeout-ms", 0, "kill deadline for this hook in milliseconds (default: server-wide 30s)")
	c.MarkFlagRequired("id")
	c.MarkFlagRequired("path")
	return c
}

func hookRemoveCmd() *cobra.Command {
	var id string
	c := &cobra.Command{
		Use:   "remove",
		Short: "Unregister a hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("hook-remove", map[string]interface{}{"id": id})
		},
	}
	c.Flags().StringVar(&id, "id", "", "hook id")
	c.MarkFlagRequired("id")
	return c
}
