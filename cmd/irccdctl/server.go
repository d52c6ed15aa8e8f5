package main

import (
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage server connections (spec §4.9 server-* commands)",
}

func init() {
	serverCmd.AddCommand(
		serverListCmd(),
		serverInfoCmd(),
		serverConnectCmd(),
		serverDisconnectCmd(),
		serverReconnectCmd(),
		serverJoinCmd(),
		serverPartCmd(),
		serverKickCmd(),
		serverInviteCmd(),
		serverTopicCmd(),
		serverMessageCmd(),
		serverMeCmd(),
		serverNoticeCmd(),
		serverModeCmd(),
		serverNickCmd(),
	)
}

func serverListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered server ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-list", nil)
		},
	}
}

func serverInfoCmd() *cobra.Command {
	var server string
	c := &cobra.Command{
		Use:   "info",
		Short: "Show a server's identity and channel set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-info", map[string]interface{}{"server": server})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.MarkFlagRequired("server")
	return c
}

func serverConnectCmd() *cobra.Command {
	var (
		name, host, nickname, username, realname, password, ctcpVersion, commandChar string
		port                                                                         int
		ssl, sslVerify, ipv4, ipv6, autoRejoin, joinInvite, autoReconnect            bool
	)
	c := &cobra.Command{
		Use:   "connect",
		Short: "Register and dial a new server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-connect", map[string]interface{}{
				"name": name, "host": host, "port": port,
				"ssl": ssl, "sslVerify": sslVerify, "ipv4": ipv4, "ipv6": ipv6,
				"autoRejoin": autoRejoin, "joinInvite": joinInvite, "autoReconnect": autoReconnect,
				"nickname": nickname, "username": username, "realname": realname, "password": password,
				"ctcpVersion": ctcpVersion, "commandChar": commandChar,
			})
		},
	}
	f := c.Flags()
	f.StringVar(&name, "name", "", "server id")
	f.StringVar(&host, "host", "", "hostname")
	f.IntVar(&port, "port", 6667, "port")
	f.BoolVar(&ssl, "ssl", false, "use TLS")
	f.BoolVar(&sslVerify, "ssl-verify", true, "verify the server's TLS certificate")
	f.BoolVar(&ipv4, "ipv4", true, "allow IPv4")
	f.BoolVar(&ipv6, "ipv6", false, "allow IPv6")
	f.BoolVar(&autoRejoin, "auto-rejoin", false, "rejoin channels after a kick")
	f.BoolVar(&joinInvite, "join-invite", false, "join channels on invite")
	f.BoolVar(&autoReconnect, "auto-reconnect", true, "reconnect automatically on disconnect")
	f.StringVar(&nickname, "nickname", "irccd", "nickname")
	f.StringVar(&username, "username", "irccd", "username")
	f.StringVar(&realname, "realname", "irccd", "realname")
	f.StringVar(&password, "password", "", "server password")
	f.StringVar(&ctcpVersion, "ctcp-version", "", "CTCP VERSION reply")
	f.StringVar(&commandChar, "command-char", "!", "command prefix character")
	c.MarkFlagRequired("name")
	c.MarkFlagRequired("host")
	return c
}

func serverDisconnectCmd() *cobra.Command {
	var server string
	c := &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect one server, or every server if --server is omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-disconnect", map[string]interface{}{"server": server})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id (all servers if omitted)")
	return c
}

func serverReconnectCmd() *cobra.Command {
	var server string
	c := &cobra.Command{
		Use:   "reconnect",
		Short: "Reconnect one server, or every server if --server is omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-reconnect", map[string]interface{}{"server": server})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id (all servers if omitted)")
	return c
}

func serverJoinCmd() *cobra.Command {
	var server, channel, password string
	c := &cobra.Command{
		Use:   "join",
		Short: "Join a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-join", map[string]interface{}{"server": server, "channel": channel, "password": password})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&channel, "channel", "", "channel name")
	c.Flags().StringVar(&password, "password", "", "channel key")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("channel")
	return c
}

func serverPartCmd() *cobra.Command {
	var server, channel, reason string
	c := &cobra.Command{
		Use:   "part",
		Short: "Part a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-part", map[string]interface{}{"server": server, "channel": channel, "reason": reason})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&channel, "channel", "", "channel name")
	c.Flags().StringVar(&reason, "reason", "", "part reason")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("channel")
	return c
}

func serverKickCmd() *cobra.Command {
	var server, target, channel, reason string
	c := &cobra.Command{
		Use:   "kick",
		Short: "Kick a user from a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-kick", map[string]interface{}{
				"server": server, "target": target, "channel": channel, "reason": reason,
			})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&target, "target", "", "nick to kick")
	c.Flags().StringVar(&channel, "channel", "", "channel name")
	c.Flags().StringVar(&reason, "reason", "", "kick reason")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("target")
	c.MarkFlagRequired("channel")
	return c
}

func serverInviteCmd() *cobra.Command {
	var server, target, channel string
	c := &cobra.Command{
		Use:   "invite",
		Short: "Invite a user to a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-invite", map[string]interface{}{"server": server, "target": target, "channel": channel})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&target, "target", "", "nick to invite")
	c.Flags().StringVar(&channel, "channel", "", "channel name")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("target")
	c.MarkFlagRequired("channel")
	return c
}

func serverTopicCmd() *cobra.Command {
	var server, channel, topic string
	c := &cobra.Command{
		Use:   "topic",
		Short: "Set a channel's topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-topic", map[string]interface{}{"server": server, "channel": channel, "topic": topic})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&channel, "channel", "", "channel name")
	c.Flags().StringVar(&topic, "topic", "", "new topic")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("channel")
	return c
}

func serverMessageCmd() *cobra.Command {
	var server, target, message string
	c := &cobra.Command{
		Use:   "message",
		Short: "Send a PRIVMSG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-message", map[string]interface{}{"server": server, "target": target, "message": message})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&target, "target", "", "channel or nick")
	c.Flags().StringVar(&message, "message", "", "message text")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("target")
	c.MarkFlagRequired("message")
	return c
}

func serverMeCmd() *cobra.Command {
	var server, target, message string
	c := &cobra.Command{
		Use:   "me",
		Short: "Send a CTCP ACTION",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-me", map[string]interface{}{"server": server, "target": target, "message": message})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&target, "target", "", "channel or nick")
	c.Flags().StringVar(&message, "message", "", "action text")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("target")
	c.MarkFlagRequired("message")
	return c
}

func serverNoticeCmd() *cobra.Command {
	var server, target, message string
	c := &cobra.Command{
		Use:   "notice",
		Short: "Send a NOTICE",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-notice", map[string]interface{}{"server": server, "target": target, "message": message})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&target, "target", "", "channel or nick")
	c.Flags().StringVar(&message, "message", "", "notice text")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("target")
	c.MarkFlagRequired("message")
	return c
}

func serverModeCmd() *cobra.Command {
	var server, channel, mode string
	var args []string
	c := &cobra.Command{
		Use:   "mode",
		Short: "Apply a channel mode change",
		RunE: func(cmd *cobra.Command, cliArgs []string) error {
			return run("server-mode", map[string]interface{}{
				"server": server, "channel": channel, "mode": mode, "args": args,
			})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&channel, "channel", "", "channel name")
	c.Flags().StringVar(&mode, "mode", "", "mode string, e.g. +o")
	c.Flags().StringSliceVar(&args, "arg", nil, "mode argument (repeatable)")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("channel")
	c.MarkFlagRequired("mode")
	return c
}

func serverNickCmd() *cobra.Command {
	var server, nickname string
	c := &cobra.Command{
		Use:   "nick",
		Short: "Change nickname",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run("server-nick", map[string]interface{}{"server": server, "nickname": nickname})
		},
	}
	c.Flags().StringVar(&server, "server", "", "server id")
	c.Flags().StringVar(&nickname, "nickname", "", "new nickname")
	c.MarkFlagRequired("server")
	c.MarkFlagRequired("nickname")
	return c
}
