package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "browserd"
	appVersion = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Persistent browser automation with an on-demand background daemon",
	Long: `Browserd drives a real browser session that outlives each command.

The first command spawns a background daemon holding the browser; later
commands talk to it over a unix socket, so page state, cookies and logins
persist between invocations. The daemon shuts itself down when idle.`,
	Version:       appVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("socket", "", "Socket path for daemon communication")
	rootCmd.PersistentFlags().Bool("headless", false, "Run the browser headless when starting the daemon")
	rootCmd.PersistentFlags().Bool("json", false, "Output JSON only, no progress messages")

	rootCmd.AddCommand(serveCmd)
	addClientCommands(rootCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s v%s\n", appName, appVersion))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
