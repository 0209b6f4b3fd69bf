// Package protocol defines the newline-delimited JSON IPC protocol between
// the browserd CLI and the daemon. Each connection carries exactly one
// request line and one response line.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Command names
const (
	CmdOpen       = "open"
	CmdState      = "state"
	CmdClick      = "click"
	CmdInput      = "input"
	CmdType       = "type"
	CmdKeys       = "keys"
	CmdScroll     = "scroll"
	CmdBack       = "back"
	CmdRefresh    = "refresh"
	CmdScreenshot = "screenshot"
	CmdClose      = "close"
	CmdPing       = "ping"
	CmdTabs       = "tabs"
	CmdSwitch     = "switch"
	CmdWait       = "wait"

	CmdAgentTask     = "agent_task"
	CmdAgentContinue = "agent_continue"
	CmdAgentStatus   = "agent_status"
	CmdAgentCancel   = "agent_cancel"
)

// Task status values carried in the "status" response field.
const (
	StatusIdle      = "idle"
	StatusRunning   = "running"
	StatusNeedInput = "need_input"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// Scroll directions accepted by CmdScroll.
const (
	ScrollUp   = "up"
	ScrollDown = "down"
)

// Request is the single JSON object a client writes per connection.
type Request struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// Response is the single JSON object the daemon writes back. Synchronous
// commands carry "success" or "error"; task commands carry "status".
type Response map[string]any

// Errorf builds an error response.
func Errorf(format string, args ...any) Response {
	return Response{"error": fmt.Sprintf(format, args...)}
}

// OK builds a success response with optional extra fields.
func OK(fields map[string]any) Response {
	r := Response{"success": true}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// IsError reports whether the response carries an error field.
func (r Response) IsError() bool {
	_, ok := r["error"]
	return ok
}

// Encode renders the response as a single JSON line including the trailing
// newline. Standard JSON encoding escapes embedded newlines in string
// values, so the line framing is safe.
func (r Response) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Encode renders the request as a single JSON line including the trailing
// newline.
func (r *Request) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeResponse parses one response line.
func DecodeResponse(line []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

// DecodeRequest parses one request line.
func DecodeRequest(line []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}
	return &req, nil
}

// String returns a string param, or the fallback when absent or of the
// wrong type.
func (r *Request) String(key, fallback string) string {
	if v, ok := r.Params[key].(string); ok {
		return v
	}
	return fallback
}

// Int returns an integer param. JSON numbers decode as float64; both that
// and a native int (from in-process callers) are accepted.
func (r *Request) Int(key string, fallback int) int {
	switch v := r.Params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// StringSlice returns a []string param, nil when absent or malformed.
func (r *Request) StringSlice(key string) []string {
	raw, ok := r.Params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}

// KnownCommands lists every command the daemon dispatches, in protocol
// order. The dispatcher uses its own closed table; this list exists for
// help output and tests.
func KnownCommands() []string {
	return []string{
		CmdOpen, CmdState, CmdClick, CmdInput, CmdType, CmdKeys,
		CmdScroll, CmdBack, CmdRefresh, CmdScreenshot, CmdClose,
		CmdPing, CmdTabs, CmdSwitch, CmdWait,
		CmdAgentTask, CmdAgentContinue, CmdAgentStatus, CmdAgentCancel,
	}
}
