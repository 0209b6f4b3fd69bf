// Package process provides OS-level process supervision: existence checks,
// escalating termination, pid-file bookkeeping, and the orphaned-browser
// sweep used as a safety net on shutdown.
package process

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// ErrNoPIDFile is returned when a pid file is absent or unparseable.
var ErrNoPIDFile = errors.New("pid file not found")

// Alive reports whether a process with the given pid exists. Signal 0
// probes existence without delivering anything.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, unix.EPERM)
}

// TerminateThenKill sends SIGTERM, waits up to grace for the process to
// exit, then SIGKILLs it. Returns nil once the process is gone; signalling
// errors on an already-dead process are not errors.
func TerminateThenKill(pid int, grace time.Duration) error {
	if pid <= 0 {
		return nil
	}

	_ = unix.Kill(pid, unix.SIGTERM)

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !Alive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	_ = unix.Kill(pid, unix.SIGKILL)

	// SIGKILL is not ignorable; give the kernel a beat to reap.
	time.Sleep(100 * time.Millisecond)
	if Alive(pid) {
		return fmt.Errorf("process %d survived SIGKILL", pid)
	}
	return nil
}

// KillGroup escalates termination against the whole process group, then
// the process itself. Used for browser processes that fork children.
func KillGroup(pid int, grace time.Duration) {
	if pid <= 0 {
		return
	}

	_ = unix.Kill(-pid, unix.SIGTERM)
	time.Sleep(grace)
	_ = unix.Kill(-pid, unix.SIGKILL)
	_ = unix.Kill(pid, unix.SIGKILL)
}

// ReadPIDFile reads a pid from a file containing a decimal integer.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, ErrNoPIDFile
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrNoPIDFile
	}
	return pid, nil
}

// WritePIDFile records a pid for later reconciliation by other processes.
func WritePIDFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644)
}

// RemovePIDFile deletes a pid file, ignoring absence.
func RemovePIDFile(path string) {
	_ = os.Remove(path)
}
