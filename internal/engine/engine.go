// Package engine drives the browser. It owns the Playwright lifecycle and
// exposes the indexed-element page model the rest of the daemon works in
// terms of: state lists interactive elements with stable indices, and
// click/input address elements by those indices.
package engine

import (
	"context"
	"errors"
)

// ErrNotStarted is returned by page operations before Start succeeds.
var ErrNotStarted = errors.New("browser session is not started")

// Element is one interactive element on the current page.
type Element struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Type  string `json:"type,omitempty"`
	Text  string `json:"text,omitempty"`
	Href  string `json:"href,omitempty"`
}

// PageState is a snapshot of the active page.
type PageState struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Elements []Element `json:"elements"`
}

// TabInfo describes one open tab.
type TabInfo struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Engine is the browser surface the daemon and the task runner operate on.
// The production implementation is Browser; tests substitute fakes.
type Engine interface {
	// Start launches the browser. Idempotent while a session is live.
	Start(ctx context.Context) error
	// Stop tears the session down. Safe to call when not started.
	Stop() error
	// Running reports whether a live session exists.
	Running() bool

	Open(ctx context.Context, url string) error
	State(ctx context.Context) (*PageState, error)
	Click(ctx context.Context, index int) error
	Input(ctx context.Context, index int, text string) error
	Type(ctx context.Context, text string) error
	PressKey(ctx context.Context, key string) error
	Scroll(ctx context.Context, direction string) error
	Back(ctx context.Context) error
	Refresh(ctx context.Context) error
	Screenshot(ctx context.Context, path string) (string, error)
	Tabs(ctx context.Context) ([]TabInfo, error)
	SwitchTab(ctx context.Context, index int) error
}
