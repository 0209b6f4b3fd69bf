package process

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FindByMarker returns pids of processes whose command line contains the
// given marker string. The profile directory makes a reliable marker for
// browser processes launched against it.
func FindByMarker(marker string) []int {
	out, err := exec.Command("pgrep", "-f", marker).Output()
	if err != nil {
		// pgrep exits 1 when nothing matched.
		return nil
	}

	var pids []int
	for _, line := range strings.Split(string(bytes.TrimSpace(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// ForceKillBrowser terminates the tracked browser process and any stragglers
// still holding the profile directory. It tries the recorded pid first with
// group escalation, then sweeps by command-line marker. Best effort.
func ForceKillBrowser(pidPath, profileDir string) error {
	if pid, err := ReadPIDFile(pidPath); err == nil {
		if Alive(pid) {
			KillGroup(pid, 500*time.Millisecond)
		}
		RemovePIDFile(pidPath)
	}

	if profileDir != "" {
		for _, pid := range FindByMarker(profileDir) {
			if Alive(pid) {
				_ = TerminateThenKill(pid, 500*time.Millisecond)
			}
		}
		if rest := leftover(profileDir); len(rest) > 0 {
			return fmt.Errorf("browser processes still running after kill: %v", rest)
		}
	}
	return nil
}

func leftover(marker string) []int {
	var alive []int
	for _, pid := range FindByMarker(marker) {
		if Alive(pid) {
			alive = append(alive, pid)
		}
	}
	return alive
}
