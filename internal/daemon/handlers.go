package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motivehq/browserd/internal/engine"
	"github.com/motivehq/browserd/internal/protocol"
)

func engineErr(err error) protocol.Response {
	if errors.Is(err, engine.ErrNotStarted) {
		return protocol.Errorf("Browser not started")
	}
	return protocol.Errorf("%v", err)
}

func (s *Server) handleOpen(ctx context.Context, req *protocol.Request) protocol.Response {
	url := req.String("url", "")
	if url == "" {
		return protocol.Errorf("URL is required")
	}
	if err := s.eng.Open(ctx, url); err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"url": engine.NormalizeURL(url)})
}

func (s *Server) handleState(ctx context.Context, req *protocol.Request) protocol.Response {
	state, err := s.eng.State(ctx)
	if err != nil {
		return engineErr(err)
	}
	resp := protocol.Response{"state": state.Render()}
	if tabs, err := s.eng.Tabs(ctx); err == nil && len(tabs) > 0 {
		current := 0
		for _, tab := range tabs {
			if tab.Active {
				current = tab.Index
			}
		}
		resp["current_tab"] = current
		resp["total_tabs"] = len(tabs)
	}
	return resp
}

func (s *Server) handleClick(ctx context.Context, req *protocol.Request) protocol.Response {
	index := req.Int("index", -1)
	if index < 0 {
		return protocol.Errorf("Element index is required")
	}
	if err := s.eng.Click(ctx, index); err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"clicked": index})
}

func (s *Server) handleInput(ctx context.Context, req *protocol.Request) protocol.Response {
	index := req.Int("index", -1)
	if index < 0 {
		return protocol.Errorf("Element index is required")
	}
	text := req.String("text", "")
	if err := s.eng.Input(ctx, index, text); err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"index": index, "text": text})
}

func (s *Server) handleType(ctx context.Context, req *protocol.Request) protocol.Response {
	text := req.String("text", "")
	if err := s.eng.Type(ctx, text); err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"typed": text})
}

func (s *Server) handleKeys(ctx context.Context, req *protocol.Request) protocol.Response {
	key := req.String("key", "")
	if key == "" {
		return protocol.Errorf("Key is required")
	}
	if err := s.eng.PressKey(ctx, key); err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"key": key})
}

func (s *Server) handleScroll(ctx context.Context, req *protocol.Request) protocol.Response {
	direction := req.String("direction", protocol.ScrollDown)
	if direction != protocol.ScrollUp && direction != protocol.ScrollDown {
		return protocol.Errorf("Invalid scroll direction: %s", direction)
	}
	if err := s.eng.Scroll(ctx, direction); err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"direction": direction})
}

func (s *Server) handleBack(ctx context.Context, req *protocol.Request) protocol.Response {
	if err := s.eng.Back(ctx); err != nil {
		return engineErr(err)
	}
	return protocol.OK(nil)
}

func (s *Server) handleRefresh(ctx context.Context, req *protocol.Request) protocol.Response {
	if err := s.eng.Refresh(ctx); err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"message": "Page refreshed"})
}

func (s *Server) handleScreenshot(ctx context.Context, req *protocol.Request) protocol.Response {
	path, err := s.eng.Screenshot(ctx, req.String("filename", ""))
	if err != nil {
		return engineErr(err)
	}
	return protocol.OK(map[string]any{"file": path})
}

func (s *Server) handlePing(ctx context.Context, req *protocol.Request) protocol.Response {
	return protocol.OK(map[string]any{"message": "pong"})
}

func (s *Server) handleTabs(ctx context.Context, req *protocol.Request) protocol.Response {
	tabs, err := s.eng.Tabs(ctx)
	if err != nil {
		return engineErr(err)
	}
	current := 0
	list := make([]map[string]any, 0, len(tabs))
	for _, tab := range tabs {
		if tab.Active {
			current = tab.Index
		}
		list = append(list, map[string]any{
			"index": tab.Index,
			"url":   tab.URL,
			"title": tab.Title,
		})
	}
	return protocol.Response{"tabs": list, "current": current, "total": len(tabs)}
}

func (s *Server) handleSwitch(ctx context.Context, req *protocol.Request) protocol.Response {
	index := req.Int("index", -1)
	if index < 0 {
		return protocol.Errorf("Tab index is required")
	}
	if err := s.eng.SwitchTab(ctx, index); err != nil {
		return engineErr(err)
	}
	resp := protocol.OK(map[string]any{"switched_to": index})
	if tabs, err := s.eng.Tabs(ctx); err == nil && index < len(tabs) {
		resp["url"] = tabs[index].URL
		resp["title"] = tabs[index].Title
	}
	return resp
}

// handleWait blocks for the requested duration while keeping the daemon
// counted as active, so a user finishing a login or captcha does not race
// the idle timeout.
func (s *Server) handleWait(ctx context.Context, req *protocol.Request) protocol.Response {
	if !s.eng.Running() {
		return protocol.Errorf("Browser not started")
	}
	seconds := req.Int("seconds", 30)
	if seconds < 1 {
		seconds = 1
	}
	message := req.String("message", "Waiting for user action")

	s.logger.Printf("waiting %ds for: %s", seconds, message)
	for i := 0; i < seconds; i++ {
		s.touchActivity()
		select {
		case <-ctx.Done():
			return protocol.Errorf("wait interrupted: daemon shutting down")
		case <-time.After(time.Second):
		}
	}
	return protocol.OK(map[string]any{
		"waited":  seconds,
		"message": fmt.Sprintf("Waited %d seconds for: %s", seconds, message),
	})
}

// handleClose tears everything down and stops the daemon.
func (s *Server) handleClose(ctx context.Context, req *protocol.Request) protocol.Response {
	s.runner.Cancel()
	s.shutdownEngine()
	s.shutdown("close command")
	return protocol.OK(map[string]any{"message": "Browser closed, server stopping"})
}

func (s *Server) handleAgentTask(ctx context.Context, req *protocol.Request) protocol.Response {
	task := req.String("task", "")
	if task == "" {
		return protocol.Errorf("Task is required")
	}
	if !s.eng.Running() {
		if err := s.eng.Start(ctx); err != nil {
			return protocol.Errorf("Failed to start browser: %v", err)
		}
	}
	maxSteps := req.Int("max_steps", s.cfg.DefaultMaxSteps)
	if maxSteps < 1 {
		maxSteps = s.cfg.DefaultMaxSteps
	}
	return s.runner.Start(task, maxSteps, req.String("model", ""))
}

func (s *Server) handleAgentContinue(ctx context.Context, req *protocol.Request) protocol.Response {
	return s.runner.Continue(req.String("choice", ""))
}

func (s *Server) handleAgentStatus(ctx context.Context, req *protocol.Request) protocol.Response {
	return s.runner.Status()
}

func (s *Server) handleAgentCancel(ctx context.Context, req *protocol.Request) protocol.Response {
	return s.runner.Cancel()
}
