package daemon

import (
	"context"
	"time"
)

// healthLoop watches the browser and the idle clock. A task in flight
// suspends both checks: tasks run long and the browser can look unresponsive
// mid-operation, so failures only count between tasks.
func (s *Server) healthLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.HealthInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.runner.Busy() {
			failures = 0
			s.touchActivity()
			continue
		}

		if s.idleFor() > s.cfg.IdleTimeout {
			s.shutdown("idle timeout reached")
			return
		}

		if !s.eng.Running() {
			continue
		}
		if s.probe(ctx) {
			failures = 0
			continue
		}
		failures++
		s.logger.Printf("browser health check failed (%d/%d)", failures, s.cfg.FailureThreshold)
		if failures >= s.cfg.FailureThreshold {
			s.shutdown("browser appears to have closed or crashed")
			return
		}
	}
}

// probe checks that the browser still answers. A slow page is not a dead
// browser, so the probe gets its own short deadline.
func (s *Server) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.eng.State(probeCtx)
	return err == nil
}
