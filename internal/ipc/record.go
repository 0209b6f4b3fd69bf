// Package ipc implements the unix-socket transport between short-lived CLI
// invocations and the long-lived daemon: the on-disk liveness record, the
// singleton lock, client request delivery, and daemon spawning.
package ipc

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DaemonRecord is the advertisement a running daemon leaves on disk so that
// later invocations can find and health-check it.
type DaemonRecord struct {
	PID        int       `json:"pid"`
	SocketPath string    `json:"socket_path"`
	LockPath   string    `json:"lock_path"`
	StartedAt  time.Time `json:"started_at"`
}

// WriteRecord persists the record atomically via rename so readers never
// observe a partial file.
func WriteRecord(path string, rec DaemonRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal daemon record: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write daemon record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write daemon record: %w", err)
	}
	return nil
}

// ReadRecord loads a record. A missing or corrupt file returns an error;
// callers treat that as "no daemon".
func ReadRecord(path string) (DaemonRecord, error) {
	var rec DaemonRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse daemon record: %w", err)
	}
	return rec, nil
}

// RemoveRecord deletes the record, ignoring absence.
func RemoveRecord(path string) {
	_ = os.Remove(path)
}
