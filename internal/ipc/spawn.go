package ipc

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/motivehq/browserd/internal/config"
	"github.com/motivehq/browserd/internal/process"
)

const (
	startupPolls    = 150
	startupInterval = 100 * time.Millisecond
)

// RemoveSocket deletes a stale socket file, ignoring absence.
func RemoveSocket(path string) {
	_ = os.Remove(path)
}

// StartDaemon spawns this binary as a detached daemon and waits for the
// socket to come up. Any stale daemon found via the record is killed first.
func StartDaemon(cfg *config.Config, headless bool) error {
	if rec, err := ReadRecord(cfg.RecordPath); err == nil && process.Alive(rec.PID) {
		_ = process.TerminateThenKill(rec.PID, 3*time.Second)
	}
	cleanup(cfg)

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own binary: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	args := []string{"serve"}
	if headless {
		args = append(args, "--headless")
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = os.Environ()
	// New session so the daemon survives the CLI process and its terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	for i := 0; i < startupPolls; i++ {
		select {
		case werr := <-exited:
			return fmt.Errorf("daemon exited during startup (%v)%s", werr, logTail(cfg.LogPath))
		default:
		}
		if Ping(cfg.SocketPath) {
			go func() { <-exited }()
			return nil
		}
		time.Sleep(startupInterval)
	}

	return fmt.Errorf("daemon did not become ready within %s%s",
		time.Duration(startupPolls)*startupInterval, logTail(cfg.LogPath))
}

// logTail returns the last few log lines for startup-failure diagnostics.
func logTail(path string) string {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > 15 {
		lines = lines[len(lines)-15:]
	}
	return "\ndaemon log tail:\n" + strings.Join(lines, "\n")
}
