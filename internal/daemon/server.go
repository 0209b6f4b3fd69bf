// Package daemon is the long-lived server side of browserd: it owns the unix
// socket, the singleton lock, the browser engine, the task runner, and the
// health and idle supervision that decides when the process should die.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/motivehq/browserd/internal/agent"
	"github.com/motivehq/browserd/internal/config"
	"github.com/motivehq/browserd/internal/engine"
	"github.com/motivehq/browserd/internal/ipc"
	"github.com/motivehq/browserd/internal/process"
)

// Server is one daemon instance.
type Server struct {
	cfg    *config.Config
	logger *log.Logger
	eng    engine.Engine
	runner *agent.Runner

	dispatch map[string]handlerFunc

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	listener net.Listener

	mu           sync.Mutex
	lastActivity time.Time
}

// New builds a Server over the given engine. The runner shares the engine so
// tasks drive the same browser session clients see.
func New(cfg *config.Config, eng engine.Engine, logger *log.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		logger:       logger,
		eng:          eng,
		runner:       agent.NewRunner(eng, logger),
		lastActivity: time.Now(),
	}
	s.dispatch = s.buildDispatch()
	return s
}

// Run starts the daemon and blocks until the context is cancelled or the
// server decides to shut down (idle timeout, failed health checks, close).
func (s *Server) Run(ctx context.Context) error {
	lock, err := ipc.Acquire(s.cfg.LockPath)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyLocked) {
			return fmt.Errorf("another daemon instance is running")
		}
		return err
	}
	defer func() {
		_ = lock.Release()
		os.Remove(s.cfg.LockPath)
	}()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	s.logger.Printf("starting browser")
	if err := s.eng.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	ipc.RemoveSocket(s.cfg.SocketPath)
	listener, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		s.shutdownEngine()
		return fmt.Errorf("bind socket: %w", err)
	}
	s.listener = listener
	// Local control socket, owner only.
	if err := os.Chmod(s.cfg.SocketPath, 0o600); err != nil {
		s.logger.Printf("chmod socket: %v", err)
	}

	if err := ipc.WriteRecord(s.cfg.RecordPath, ipc.DaemonRecord{
		PID:        os.Getpid(),
		SocketPath: s.cfg.SocketPath,
		LockPath:   s.cfg.LockPath,
		StartedAt:  time.Now().UTC(),
	}); err != nil {
		listener.Close()
		s.shutdownEngine()
		return err
	}

	s.logger.Printf("daemon running (pid %d, idle timeout %s)", os.Getpid(), s.cfg.IdleTimeout)

	s.wg.Add(2)
	go s.acceptLoop(ctx)
	go s.healthLoop(ctx)

	<-ctx.Done()

	listener.Close()
	s.wg.Wait()

	s.runner.Cancel()
	s.shutdownEngine()

	ipc.RemoveRecord(s.cfg.RecordPath)
	ipc.RemoveSocket(s.cfg.SocketPath)
	s.logger.Printf("daemon stopped")
	return nil
}

// shutdownEngine stops the session and force-kills anything the browser left
// behind, so a dead daemon never strands a browser process.
func (s *Server) shutdownEngine() {
	if err := s.eng.Stop(); err != nil {
		s.logger.Printf("stop browser: %v", err)
	}
	if err := process.ForceKillBrowser(s.cfg.BrowserPIDPath, s.cfg.ProfileDir); err != nil {
		s.logger.Printf("force kill browser: %v", err)
	}
}

// shutdown asks the daemon to stop from inside a handler or the health loop.
func (s *Server) shutdown(reason string) {
	s.logger.Printf("shutting down: %s", reason)
	s.cancel()
}

// touchActivity marks the daemon as recently used.
func (s *Server) touchActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Server) idleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}
