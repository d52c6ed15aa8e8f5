package main

import (
	"github.com/spf13/cobra"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage the accept/drop rule list (spec §4.9 rule-* commands)",
}

func init() {
	ruleCmd.AddCommand(
		ruleListCmd(),
		ruleInfoCmd(),
		ruleAddCmd(),
		ruleEditCmd(),
		ruleRemoveCmd(),
		ruleMoveCmd(),
	)
}

func ruleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every rule in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("rule-list", nil)
		},
	}
}

func ruleInfoCmd() *cobra.Command {
	var index int
	c := &cobra.Command{
		Use:   "info",
		Short: "Show one rule by index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("rule-info", map[string]interface{}{"index": index})
		},
	}
	c.Flags().IntVar(&index, "index", 0, "rule index")
	return c
}

func ruleAddCmd() *cobra.Command {
	var servers, channels, origins, plugins, events []string
	var action string
	var index int
	c := &cobra.Command{
		Use:   "add",
		Short: "Append or insert a rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]interface{}{
				"servers": servers, "channels": channels, "origins": origins,
				"plugins": plugins, "events": events, "action": action,
			}
			if cmd.Flags().Changed("index") {
				fields["index"] = index
			}
			return run("rule-add", fields)
		},
	}
	f := c.Flags()
	f.StringSliceVar(&servers, "server", nil, "server id to match (repeatable)")
	f.StringSliceVar(&channels, "channel", nil, "channel to match (repeatable)")
	f.StringSliceVar(&origins, "origin", nil, "origin nick to match (repeatable)")
	f.StringSliceVar(&plugins, "plugin", nil, "plugin id to match (repeatable)")
	f.StringSliceVar(&events, "event", nil, "event name to match (repeatable)")
	f.StringVar(&action, "action", "", "accept or drop")
	f.IntVar(&index, "index", -1, "insert position (appended if omitted)")
	c.MarkFlagRequired("action")
	return c
}

func ruleEditCmd() *cobra.Command {
	var index int
	var action string
	var addServers, removeServers, addChannels, removeChannels []string
	var addOrigins, removeOrigins, addPlugins, removePlugins []string
	var addEvents, removeEvents []string
	c := &cobra.Command{
		Use:   "edit",
		Short: "Add/remove match-set members on an existing rule, or change its action",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]interface{}{
				"index":          index,
				"add-servers":    addServers,
				"remove-servers": removeServers,
				"add-channels":   addChannels,
				"remove-channels": removeChannels,
				"add-origins":    addOrigins,
				"remove-origins": removeOrigins,
				"add-plugins":    addPlugins,
				"remove-plugins": removePlugins,
				"add-events":     addEvents,
				"remove-events":  removeEvents,
			}
			if action != "" {
				fields["action"] = action
			}
			return run("rule-edit", fields)
		},
	}
	f := c.Flags()
	f.IntVar(&index, "index", 0, "rule index")
	f.StringVar(&action, "action", "", "new action (accept or drop)")
	f.StringSliceVar(&addServers, "add-server", nil, "server id to add (repeatable)")
	f.StringSliceVar(&removeServers, "remove-server", nil, "server id to remove (repeatable)")
	f.StringSliceVar(&addChannels, "add-channel", nil, "channel to add (repeatable)")
	f.StringSliceVar(&removeChannels, "remove-channel", nil, "channel to remove (repeatable)")
	f.StringSliceVar(&addOrigins, "add-origin", nil, "origin to add (repeatable)")
	f.StringSliceVar(&removeOrigins, "remove-origin", nil, "origin to remove (repeatable)")
	f.StringSliceVar(&addPlugins, "add-plugin", nil, "plugin id to add (repeatable)")
	f.StringSliceVar(&removePlugins, "remove-plugin", nil, "plugin id to remove (repeatable)")
	f.StringSliceVar(&addEvents, "add-event", nil, "event name to add (repeatable)")
	f.StringSliceVar(&removeEvents, "remove-event", nil, "event name to remove (repeatable)")
	return c
}

func ruleRemoveCmd() *cobra.Command {
	var index int
	c := &cobra.Command{
		Use:   "remove",
		Short: "Remove a rule by index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("rule-remove", map[string]interface{}{"index": index})
		},
	}
	c.Flags().IntVar(&index, "index", 0, "rule index")
	return c
}

func ruleMoveCmd() *cobra.Command {
	var from, to int
	c := &cobra.Command{
		Use:   "move",
		Short: "Move a rule from one index to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("rule-move", map[string]interface{}{"from": from, "to": to})
		},
	}
	c.Flags().IntVar(&from, "from", 0, "source index")
	c.Flags().IntVar(&to, "to", 0, "destination index")
	return c
}
