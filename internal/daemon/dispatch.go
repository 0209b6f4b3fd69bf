package daemon

import (
	"context"

	"github.com/motivehq/browserd/internal/protocol"
)

type handlerFunc func(ctx context.Context, req *protocol.Request) protocol.Response

// buildDispatch wires the closed command table. Commands outside this table
// are rejected; there is no dynamic registration.
func (s *Server) buildDispatch() map[string]handlerFunc {
	return map[string]handlerFunc{
		protocol.CmdOpen:       s.handleOpen,
		protocol.CmdState:      s.handleState,
		protocol.CmdClick:      s.handleClick,
		protocol.CmdInput:      s.handleInput,
		protocol.CmdType:       s.handleType,
		protocol.CmdKeys:       s.handleKeys,
		protocol.CmdScroll:     s.handleScroll,
		protocol.CmdBack:       s.handleBack,
		protocol.CmdRefresh:    s.handleRefresh,
		protocol.CmdScreenshot: s.handleScreenshot,
		protocol.CmdClose:      s.handleClose,
		protocol.CmdPing:       s.handlePing,
		protocol.CmdTabs:       s.handleTabs,
		protocol.CmdSwitch:     s.handleSwitch,
		protocol.CmdWait:       s.handleWait,

		protocol.CmdAgentTask:     s.handleAgentTask,
		protocol.CmdAgentContinue: s.handleAgentContinue,
		protocol.CmdAgentStatus:   s.handleAgentStatus,
		protocol.CmdAgentCancel:   s.handleAgentCancel,
	}
}

// handleRequest routes one request. Every request counts as activity, even
// unknown ones, and handler panics become error responses instead of taking
// the daemon down.
func (s *Server) handleRequest(ctx context.Context, req *protocol.Request) (resp protocol.Response) {
	s.touchActivity()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("panic handling %q: %v", req.Command, r)
			resp = protocol.Errorf("internal error: %v", r)
		}
	}()

	handler, ok := s.dispatch[req.Command]
	if !ok {
		return protocol.Errorf("Unknown command: %s", req.Command)
	}
	return handler(ctx, req)
}
