package ipc

import (
	"time"

	"github.com/motivehq/browserd/internal/config"
	"github.com/motivehq/browserd/internal/process"
)

// IsDaemonRunning reconciles the on-disk record with reality and reports
// whether a healthy daemon is answering. Stale state is cleaned up as a side
// effect: dead pids lose their record and socket, and a live pid that no
// longer answers its socket is treated as a zombie and killed.
func IsDaemonRunning(cfg *config.Config) bool {
	rec, err := ReadRecord(cfg.RecordPath)
	if err != nil {
		return false
	}

	if !process.Alive(rec.PID) {
		cleanup(cfg)
		return false
	}

	if Ping(rec.SocketPath) {
		return true
	}

	// Process exists but the socket is dead. Kill the zombie so a fresh
	// daemon can take its place.
	_ = process.TerminateThenKill(rec.PID, 3*time.Second)
	cleanup(cfg)
	return false
}

func cleanup(cfg *config.Config) {
	RemoveRecord(cfg.RecordPath)
	RemoveSocket(cfg.SocketPath)
}
