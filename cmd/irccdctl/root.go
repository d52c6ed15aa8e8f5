// Command irccdctl is the control-transport CLI client: one
// connect-request-print-disconnect round trip per invocation, grounded
// on bitcanon-ircpush's cobra root+subcommand layout (cmd/root.go,
// cmd/serve.go) and its pkg/irc/client.go dial/write/scan shape.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagUnix       string
	flagBind       string
	flagTLS        bool
	flagSkipVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "irccdctl",
	Short: "Control client for the irccd control transport",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUnix, "unix", "", "Unix-domain socket path")
	rootCmd.PersistentFlags().StringVar(&flagBind, "bind", "localhost:9999", "host:port of the control transport")
	rootCmd.PersistentFlags().BoolVar(&flagTLS, "tls", false, "connect using TLS")
	rootCmd.PersistentFlags().BoolVar(&flagSkipVerify, "tls-skip-verify", false, "skip TLS certificate verification")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(ruleCmd)
	rootCmd.AddCommand(hookCmd)
}

// run dials the configured transport, sends one command and prints its
// response fields as JSON. Every leaf subcommand's RunE is this one
// call wrapped around its own field map.
func run(command string, fields map[string]interface{}) error {
	c, err := dial(flagUnix, flagBind, flagTLS, flagSkipVerify)
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.request(command, fields)
	if err != nil {
		return err
	}
	if len(resp) == 0 {
		fmt.Println("ok")
		return nil
	}
	enc, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
