package main

import (
	"github.com/spf13/cobra"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage loaded plugins (spec §4.9 plugin-* commands)",
}

func init() {
	pluginCmd.AddCommand(
		pluginListCmd(),
		pluginInfoCmd(),
		pluginLoadCmd(),
		pluginUnloadCmd(),
		pluginReloadCmd(),
		pluginConfigCmd(),
		pluginTemplateCmd(),
		pluginPathsCmd(),
	)
}

func pluginListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded plugin ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("plugin-list", nil)
		},
	}
}

func pluginInfoCmd() *cobra.Command {
	var id string
	c := &cobra.Command{
		Use:   "info",
		Short: "Show a loaded plugin's metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("plugin-info", map[string]interface{}{"plugin": id})
		},
	}
	c.Flags().StringVar(&id, "plugin", "", "plugin id")
	c.MarkFlagRequired("plugin")
	return c
}

func pluginLoadCmd() *cobra.Command {
	var id, path string
	c := &cobra.Command{
		Use:   "load",
		Short: "Load a plugin, optionally from an explicit path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("plugin-load", map[string]interface{}{"plugin": id, "path": path})
		},
	}
	c.Flags().StringVar(&id, "plugin", "", "plugin id")
	c.Flags().StringVar(&path, "path", "", "explicit plugin path (searched if omitted)")
	c.MarkFlagRequired("plugin")
	return c
}

func pluginUnloadCmd() *cobra.Command {
	var id string
	c := &cobra.Command{
		Use:   "unload",
		Short: "Unload a plugin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("plugin-unload", map[string]interface{}{"plugin": id})
		},
	}
	c.Flags().StringVar(&id, "plugin", "", "plugin id")
	c.MarkFlagRequired("plugin")
	return c
}

func pluginReloadCmd() *cobra.Command {
	var id string
	c := &cobra.Command{
		Use:   "reload",
		Short: "Unload then reload a plugin from its original path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("plugin-reload", map[string]interface{}{"plugin": id})
		},
	}
	c.Flags().StringVar(&id, "plugin", "", "plugin id")
	c.MarkFlagRequired("plugin")
	return c
}

// keyValueVariableCmd builds the get/set pair shared by plugin-config,
// plugin-template and plugin-paths: with --value set, it's a set; with
// --value omitted, it's a get (of one --variable, or all variables).
func keyValueVariableCmd(use, short, command string) *cobra.Command {
	var id, variable, value string
	var hasValue bool
	c := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]interface{}{"plugin": id}
			if variable != "" {
				fields["variable"] = variable
			}
			if hasValue {
				fields["value"] = value
			}
			return run(command, fields)
		},
	}
	c.Flags().StringVar(&id, "plugin", "", "plugin id")
	c.Flags().StringVar(&variable, "variable", "", "variable name (all variables if omitted on get)")
	c.Flags().StringVar(&value, "value", "", "new value (switches to set mode)")
	c.MarkFlagRequired("plugin")
	c.PreRunE = func(cmd *cobra.Command, args []string) error {
		hasValue = cmd.Flags().Changed("value")
		return nil
	}
	return c
}

func pluginConfigCmd() *cobra.Command {
	return keyValueVariableCmd("config", "Get or set a plugin's option variables", "plugin-config")
}

func pluginTemplateCmd() *cobra.Command {
	return keyValueVariableCmd("template", "Get or set a plugin's template variables", "plugin-template")
}

func pluginPathsCmd() *cobra.Command {
	return keyValueVariableCmd("paths", "Get or set a plugin's cache/data/config path overrides", "plugin-paths")
}
