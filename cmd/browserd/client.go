package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/motivehq/browserd/internal/config"
	"github.com/motivehq/browserd/internal/ipc"
	"github.com/motivehq/browserd/internal/process"
	"github.com/motivehq/browserd/internal/protocol"
)

// clientConfig resolves configuration from the environment plus CLI flags.
func clientConfig(cmd *cobra.Command) *config.Config {
	cfg := config.FromEnv()
	if socket, _ := cmd.Root().PersistentFlags().GetString("socket"); socket != "" {
		cfg.SocketPath = socket
	}
	return &cfg
}

// sendCommand delivers one request to the daemon, starting it if needed, and
// prints the JSON response. The process exit code is 0 on success and 1 on
// any error response or communication failure.
func sendCommand(cmd *cobra.Command, command string, params map[string]any, timeout time.Duration) error {
	cfg := clientConfig(cmd)
	jsonOnly, _ := cmd.Root().PersistentFlags().GetBool("json")
	headless, _ := cmd.Root().PersistentFlags().GetBool("headless")

	if !ipc.IsDaemonRunning(cfg) {
		// Closing a daemon that is not there already succeeded.
		if command == protocol.CmdClose {
			printResponse(protocol.OK(map[string]any{"message": "No server running"}))
			return nil
		}

		if !jsonOnly {
			fmt.Fprintln(os.Stderr, "Starting browser daemon...")
		}
		if err := ipc.StartDaemon(cfg, headless); err != nil {
			printResponse(protocol.Errorf("Failed to start daemon: %v", err))
			os.Exit(1)
		}
		if !jsonOnly {
			fmt.Fprintln(os.Stderr, "Daemon started.")
		}
	}

	resp, err := ipc.Send(cfg.SocketPath, &protocol.Request{Command: command, Params: params}, timeout)
	if err != nil {
		printResponse(protocol.Errorf("Failed to communicate with daemon: %v", err))
		os.Exit(1)
	}

	printResponse(resp)
	if resp.IsError() {
		os.Exit(1)
	}
	return nil
}

func printResponse(resp protocol.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		fmt.Printf(`{"error": %q}`+"\n", err.Error())
		return
	}
	fmt.Println(string(data))
}

// runSessions reports whether a session daemon is alive without starting one.
func runSessions(cmd *cobra.Command, args []string) error {
	cfg := clientConfig(cmd)
	sessions := []string{}
	if ipc.IsDaemonRunning(cfg) {
		sessions = append(sessions, "default")
	}
	printResponse(protocol.Response{"sessions": sessions})
	return nil
}

// runKill force-kills the daemon and any browser processes without asking
// nicely. The escape hatch for a wedged session.
func runKill(cmd *cobra.Command, args []string) error {
	cfg := clientConfig(cmd)

	if rec, err := ipc.ReadRecord(cfg.RecordPath); err == nil && process.Alive(rec.PID) {
		_ = process.TerminateThenKill(rec.PID, 3*time.Second)
	}
	ipc.RemoveRecord(cfg.RecordPath)
	ipc.RemoveSocket(cfg.SocketPath)

	if err := process.ForceKillBrowser(cfg.BrowserPIDPath, cfg.ProfileDir); err != nil {
		printResponse(protocol.Errorf("%v", err))
		os.Exit(1)
	}

	printResponse(protocol.OK(map[string]any{"message": "Daemon and browser killed"}))
	return nil
}
