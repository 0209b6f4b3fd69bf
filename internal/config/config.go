// Package config holds the daemon's policy knobs and the deterministic
// file locations every client invocation uses to find a running daemon.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Base name for all on-disk artifacts. Every path is derived from it so
// that independent CLI invocations agree without coordination.
const AppName = "browserd"

// Config holds the complete daemon configuration.
type Config struct {
	// SocketPath is the unix socket the daemon listens on.
	SocketPath string

	// RecordPath is where the daemon record (pid, socket, start time) lives.
	RecordPath string

	// LockPath is the singleton lock file.
	LockPath string

	// LogPath receives the daemon's stdout/stderr and log output.
	LogPath string

	// BrowserPIDPath records the pid of the browser the engine launched.
	BrowserPIDPath string

	// ProfileDir is the isolated browser profile directory.
	ProfileDir string

	// Headless controls browser visibility.
	Headless bool

	// IdleTimeout is how long the daemon may sit without client activity
	// before shutting itself down.
	IdleTimeout time.Duration

	// HealthInterval is the period of the health/idle supervisor tick.
	HealthInterval time.Duration

	// FailureThreshold is how many consecutive failed liveness probes are
	// trusted as "the browser died".
	FailureThreshold int

	// ReadTimeout bounds the single request line read per connection.
	ReadTimeout time.Duration

	// WriteTimeout bounds the single response line write per connection.
	WriteTimeout time.Duration

	// StartupTimeout bounds how long a client waits for a spawned daemon's
	// socket to appear.
	StartupTimeout time.Duration

	// DefaultMaxSteps caps agent task length when the client does not say.
	DefaultMaxSteps int
}

// Default returns the stock configuration. Paths live under the shared
// temp directory so any process can locate them.
func Default() Config {
	tmp := os.TempDir()
	home, err := os.UserHomeDir()
	if err != nil {
		home = tmp
	}

	return Config{
		SocketPath:       filepath.Join(tmp, AppName+".sock"),
		RecordPath:       filepath.Join(tmp, AppName+".json"),
		LockPath:         filepath.Join(tmp, AppName+".lock"),
		LogPath:          filepath.Join(tmp, AppName+".log"),
		BrowserPIDPath:   filepath.Join(tmp, AppName+"-browser.pid"),
		ProfileDir:       filepath.Join(home, ".browserd", "profiles", "chrome-profile"),
		Headless:         false,
		IdleTimeout:      300 * time.Second,
		HealthInterval:   15 * time.Second,
		FailureThreshold: 3,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     30 * time.Second,
		StartupTimeout:   15 * time.Second,
		DefaultMaxSteps:  50,
	}
}

// FromEnv returns the default configuration with environment overrides
// applied. Unparseable values are ignored in favor of the defaults; the
// daemon must come up even with a mangled environment.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("BROWSERD_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("BROWSERD_PROFILE_DIR"); v != "" {
		cfg.ProfileDir = v
	}
	if d, ok := envDuration("BROWSERD_IDLE_TIMEOUT"); ok {
		cfg.IdleTimeout = d
	}
	if d, ok := envDuration("BROWSERD_HEALTH_INTERVAL"); ok {
		cfg.HealthInterval = d
	}
	if n, ok := envInt("BROWSERD_FAILURE_THRESHOLD"); ok && n > 0 {
		cfg.FailureThreshold = n
	}
	if n, ok := envInt("BROWSERD_MAX_STEPS"); ok && n > 0 {
		cfg.DefaultMaxSteps = n
	}

	return cfg
}

// envDuration reads an env var as either a Go duration ("5m") or a bare
// number of seconds ("300").
func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, true
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
