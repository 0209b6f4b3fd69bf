package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is one decision parsed from a model completion.
type Action struct {
	Thought string         `json:"thought,omitempty"`
	Name    string         `json:"action"`
	Params  map[string]any `json:"params,omitempty"`
}

// Action names the model may emit.
const (
	actOpen     = "open"
	actClick    = "click"
	actInput    = "input"
	actType     = "type"
	actKeys     = "keys"
	actScroll   = "scroll"
	actBack     = "back"
	actRefresh  = "refresh"
	actSwitch   = "switch"
	actWait     = "wait"
	actAskHuman = "ask_human"
	actDone     = "done"
)

// parseAction extracts the JSON action object from a completion. Models wrap
// JSON in prose or code fences often enough that we scan for the outermost
// braces instead of unmarshalling the whole text.
func parseAction(text string) (*Action, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no action object in model response")
	}

	var action Action
	if err := json.Unmarshal([]byte(text[start:end+1]), &action); err != nil {
		return nil, fmt.Errorf("parse model action: %w", err)
	}
	if action.Name == "" {
		return nil, fmt.Errorf("model action has no name")
	}
	if action.Params == nil {
		action.Params = map[string]any{}
	}
	return &action, nil
}

func (a *Action) str(key string) string {
	s, _ := a.Params[key].(string)
	return s
}

func (a *Action) num(key string, fallback int) int {
	switch v := a.Params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func (a *Action) boolean(key string) bool {
	b, _ := a.Params[key].(bool)
	return b
}

func (a *Action) strs(key string) []string {
	raw, ok := a.Params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
