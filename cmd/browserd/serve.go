package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/motivehq/browserd/internal/config"
	"github.com/motivehq/browserd/internal/daemon"
	"github.com/motivehq/browserd/internal/engine"
)

// serveCmd runs the daemon in the foreground. Clients spawn it detached;
// it is hidden because users normally never invoke it themselves.
var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Run the daemon in the foreground",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if socket, _ := cmd.Root().PersistentFlags().GetString("socket"); socket != "" {
		cfg.SocketPath = socket
	}
	if headless, _ := cmd.Root().PersistentFlags().GetBool("headless"); headless {
		cfg.Headless = true
	}

	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	eng := engine.NewBrowser(&cfg, logger)
	srv := daemon.New(&cfg, eng, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Printf("daemon error: %v", err)
		return err
	}
	return nil
}
