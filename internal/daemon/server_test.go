package daemon

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motivehq/browserd/internal/config"
	"github.com/motivehq/browserd/internal/engine"
	"github.com/motivehq/browserd/internal/ipc"
	"github.com/motivehq/browserd/internal/protocol"
)

// stubEngine satisfies engine.Engine without a browser.
type stubEngine struct {
	mu       sync.Mutex
	running  bool
	stateErr error
	url      string
}

func (f *stubEngine) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	return nil
}

func (f *stubEngine) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *stubEngine) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *stubEngine) Open(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return engine.ErrNotStarted
	}
	f.url = engine.NormalizeURL(url)
	return nil
}

func (f *stubEngine) State(ctx context.Context) (*engine.PageState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil, engine.ErrNotStarted
	}
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return &engine.PageState{
		URL:      f.url,
		Title:    "Stub",
		Elements: []engine.Element{{Index: 0, Tag: "button", Text: "Go"}},
	}, nil
}

func (f *stubEngine) Click(ctx context.Context, index int) error {
	if index > 0 {
		return fmt.Errorf("element index %d out of range (page has 1 interactive elements)", index)
	}
	return nil
}

func (f *stubEngine) Input(ctx context.Context, index int, text string) error { return nil }
func (f *stubEngine) Type(ctx context.Context, text string) error             { return nil }
func (f *stubEngine) PressKey(ctx context.Context, key string) error          { return nil }
func (f *stubEngine) Scroll(ctx context.Context, dir string) error            { return nil }
func (f *stubEngine) Back(ctx context.Context) error                          { return nil }
func (f *stubEngine) Refresh(ctx context.Context) error                       { return nil }

func (f *stubEngine) Screenshot(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = "/tmp/stub.png"
	}
	return path, nil
}

func (f *stubEngine) Tabs(ctx context.Context) ([]engine.TabInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil, engine.ErrNotStarted
	}
	return []engine.TabInfo{{Index: 0, URL: f.url, Title: "Stub", Active: true}}, nil
}

func (f *stubEngine) SwitchTab(ctx context.Context, index int) error {
	if index != 0 {
		return fmt.Errorf("tab index %d out of range (have 1 tabs)", index)
	}
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	base := config.Default()
	cfg := &base
	cfg.SocketPath = filepath.Join(dir, "browserd.sock")
	cfg.RecordPath = filepath.Join(dir, "browserd.json")
	cfg.LockPath = filepath.Join(dir, "browserd.lock")
	cfg.LogPath = filepath.Join(dir, "browserd.log")
	cfg.BrowserPIDPath = filepath.Join(dir, "browser.pid")
	cfg.ProfileDir = filepath.Join(dir, "profile")
	return cfg
}

func newTestServer(t *testing.T) (*Server, *stubEngine, context.Context) {
	t.Helper()
	eng := &stubEngine{running: true}
	s := New(testConfig(t), eng, log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	t.Cleanup(cancel)
	return s, eng, ctx
}

func req(cmd string, params map[string]any) *protocol.Request {
	if params == nil {
		params = map[string]any{}
	}
	return &protocol.Request{Command: cmd, Params: params}
}

func TestUnknownCommand(t *testing.T) {
	s, _, ctx := newTestServer(t)
	resp := s.handleRequest(ctx, req("teleport", nil))
	assert.Equal(t, "Unknown command: teleport", resp["error"])
}

func TestPing(t *testing.T) {
	s, _, ctx := newTestServer(t)
	resp := s.handleRequest(ctx, req(protocol.CmdPing, nil))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "pong", resp["message"])
}

func TestOpen(t *testing.T) {
	s, eng, ctx := newTestServer(t)

	resp := s.handleRequest(ctx, req(protocol.CmdOpen, nil))
	assert.Equal(t, "URL is required", resp["error"])

	resp = s.handleRequest(ctx, req(protocol.CmdOpen, map[string]any{"url": "example.com"}))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "https://example.com", resp["url"])
	assert.Equal(t, "https://example.com", eng.url)
}

func TestOpenBrowserNotStarted(t *testing.T) {
	s, eng, ctx := newTestServer(t)
	eng.running = false

	resp := s.handleRequest(ctx, req(protocol.CmdOpen, map[string]any{"url": "example.com"}))
	assert.Equal(t, "Browser not started", resp["error"])
}

func TestState(t *testing.T) {
	s, _, ctx := newTestServer(t)
	resp := s.handleRequest(ctx, req(protocol.CmdState, nil))
	state, ok := resp["state"].(string)
	require.True(t, ok)
	assert.Contains(t, state, "[0]<button> Go")
	assert.Equal(t, 0, resp["current_tab"])
	assert.Equal(t, 1, resp["total_tabs"])
}

func TestClick(t *testing.T) {
	s, _, ctx := newTestServer(t)

	resp := s.handleRequest(ctx, req(protocol.CmdClick, nil))
	assert.Equal(t, "Element index is required", resp["error"])

	resp = s.handleRequest(ctx, req(protocol.CmdClick, map[string]any{"index": float64(0)}))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 0, resp["clicked"])

	resp = s.handleRequest(ctx, req(protocol.CmdClick, map[string]any{"index": float64(7)}))
	assert.Contains(t, resp["error"], "out of range")
}

func TestScrollValidation(t *testing.T) {
	s, _, ctx := newTestServer(t)

	resp := s.handleRequest(ctx, req(protocol.CmdScroll, map[string]any{"direction": "sideways"}))
	assert.Equal(t, "Invalid scroll direction: sideways", resp["error"])

	resp = s.handleRequest(ctx, req(protocol.CmdScroll, nil))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "down", resp["direction"])
}

func TestDispatchTouchesActivity(t *testing.T) {
	s, _, ctx := newTestServer(t)

	s.mu.Lock()
	s.lastActivity = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	s.handleRequest(ctx, req("bogus", nil))
	assert.Less(t, s.idleFor(), time.Minute, "unknown commands still count as activity")
}

func TestPanicRecovery(t *testing.T) {
	s, _, ctx := newTestServer(t)
	s.dispatch["explode"] = func(ctx context.Context, req *protocol.Request) protocol.Response {
		panic("boom")
	}

	resp := s.handleRequest(ctx, req("explode", nil))
	assert.Contains(t, resp["error"], "boom")

	// The daemon still serves after the panic.
	resp = s.handleRequest(ctx, req(protocol.CmdPing, nil))
	assert.Equal(t, true, resp["success"])
}

func TestConnRejectsOversizedRequest(t *testing.T) {
	s, _, ctx := newTestServer(t)

	client, server := net.Pipe()
	defer client.Close()

	go s.handleConn(ctx, server)
	go func() {
		// A request line at the cap with no newline in sight.
		client.Write(bytes.Repeat([]byte("x"), maxRequestBytes))
	}()

	line, err := bufio.NewReader(client).ReadBytes('\n')
	require.NoError(t, err)
	resp, err := protocol.DecodeResponse(line)
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "request exceeds")
}

func TestAgentTaskRequiresTask(t *testing.T) {
	s, _, ctx := newTestServer(t)
	resp := s.handleRequest(ctx, req(protocol.CmdAgentTask, nil))
	assert.Equal(t, "Task is required", resp["error"])
}

func TestAgentStatusIdle(t *testing.T) {
	s, _, ctx := newTestServer(t)
	resp := s.handleRequest(ctx, req(protocol.CmdAgentStatus, nil))
	assert.Equal(t, protocol.StatusIdle, resp["status"])
}

func TestHealthLoopIdleShutdown(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.cfg.HealthInterval = 20 * time.Millisecond
	s.cfg.IdleTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.cancel = cancel

	s.wg.Add(1)
	go s.healthLoop(ctx)

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("idle timeout did not shut the daemon down")
	}
	s.wg.Wait()
}

func TestHealthLoopFailureThreshold(t *testing.T) {
	s, eng, _ := newTestServer(t)
	s.cfg.HealthInterval = 20 * time.Millisecond
	s.cfg.IdleTimeout = time.Hour
	s.cfg.FailureThreshold = 3
	eng.stateErr = fmt.Errorf("browser gone")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.cancel = cancel

	s.wg.Add(1)
	go s.healthLoop(ctx)

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("failed probes did not shut the daemon down")
	}
	s.wg.Wait()
}

func TestRunServesOverSocket(t *testing.T) {
	eng := &stubEngine{}
	cfg := testConfig(t)
	s := New(cfg, eng, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	// Wait for the socket to come up.
	deadline := time.Now().Add(5 * time.Second)
	for !ipc.Ping(cfg.SocketPath) {
		if time.Now().After(deadline) {
			t.Fatal("daemon did not come up")
		}
		time.Sleep(20 * time.Millisecond)
	}

	// The record reflects the live daemon.
	rec, err := ipc.ReadRecord(cfg.RecordPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.SocketPath, rec.SocketPath)

	resp, err := ipc.Send(cfg.SocketPath, req(protocol.CmdOpen, map[string]any{"url": "example.com"}), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, true, resp["success"])

	// close tears the daemon down and Run returns.
	resp, err = ipc.Send(cfg.SocketPath, req(protocol.CmdClose, nil), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, true, resp["success"])

	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after close")
	}

	// Cleanup removed the record.
	_, err = ipc.ReadRecord(cfg.RecordPath)
	assert.Error(t, err)
}

func TestRunRejectsSecondInstance(t *testing.T) {
	eng := &stubEngine{}
	cfg := testConfig(t)
	s := New(cfg, eng, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !ipc.Ping(cfg.SocketPath) {
		if time.Now().After(deadline) {
			t.Fatal("daemon did not come up")
		}
		time.Sleep(20 * time.Millisecond)
	}

	second := New(cfg, &stubEngine{}, log.New(io.Discard, "", 0))
	err := second.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another daemon instance is running")

	cancel()
	<-runDone
}
