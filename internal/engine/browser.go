package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/motivehq/browserd/internal/config"
	"github.com/motivehq/browserd/internal/process"
)

const (
	startAttempts = 3
	actionTimeout = 15 * time.Second
	gotoTimeout   = 30 * time.Second
)

// Browser is the Playwright-backed Engine. One persistent Chromium context
// bound to a profile directory; the active page follows tab switches.
type Browser struct {
	cfg    *config.Config
	logger *log.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.BrowserContext
	page    playwright.Page
}

var _ Engine = (*Browser)(nil)

// NewBrowser builds an unstarted Browser.
func NewBrowser(cfg *config.Config, logger *log.Logger) *Browser {
	return &Browser{cfg: cfg, logger: logger}
}

// Start launches Chromium against the configured profile directory. A crashed
// launch leaves orphaned processes behind, so each retry force-kills anything
// still holding the profile before trying again.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= startAttempts; attempt++ {
		if attempt > 1 {
			b.logger.Printf("browser start attempt %d/%d after: %v", attempt, startAttempts, lastErr)
			_ = process.ForceKillBrowser(b.cfg.BrowserPIDPath, b.cfg.ProfileDir)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		if err := b.launch(); err != nil {
			lastErr = err
			b.teardown()
			continue
		}

		b.recordBrowserPID()
		b.logger.Printf("browser started (profile %s, headless=%v)", b.cfg.ProfileDir, b.cfg.Headless)
		return nil
	}
	return fmt.Errorf("start browser after %d attempts: %w", startAttempts, lastErr)
}

func (b *Browser) launch() error {
	if err := os.MkdirAll(b.cfg.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("install playwright drivers: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	b.pw = pw

	browser, err := pw.Chromium.LaunchPersistentContext(b.cfg.ProfileDir,
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(b.cfg.Headless),
			Args: []string{
				"--no-first-run",
				"--no-default-browser-check",
			},
		})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	b.browser = browser

	pages := browser.Pages()
	if len(pages) > 0 {
		b.page = pages[0]
	} else {
		page, err := browser.NewPage()
		if err != nil {
			return fmt.Errorf("open initial page: %w", err)
		}
		b.page = page
	}
	b.page.SetDefaultTimeout(float64(actionTimeout.Milliseconds()))
	return nil
}

// recordBrowserPID discovers the Chromium process by its profile-dir marker
// and writes it down so a later force kill can target it even after the
// Playwright connection is gone.
func (b *Browser) recordBrowserPID() {
	pids := process.FindByMarker(b.cfg.ProfileDir)
	if len(pids) == 0 {
		b.logger.Printf("could not determine browser pid for profile %s", b.cfg.ProfileDir)
		return
	}
	if err := process.WritePIDFile(b.cfg.BrowserPIDPath, pids[0]); err != nil {
		b.logger.Printf("write browser pid file: %v", err)
	}
}

// Stop closes the session and stops the Playwright driver.
func (b *Browser) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil && b.pw == nil {
		return nil
	}
	b.teardown()
	process.RemovePIDFile(b.cfg.BrowserPIDPath)
	b.logger.Printf("browser stopped")
	return nil
}

func (b *Browser) teardown() {
	if b.browser != nil {
		_ = b.browser.Close()
		b.browser = nil
	}
	if b.pw != nil {
		_ = b.pw.Stop()
		b.pw = nil
	}
	b.page = nil
}

// Running reports whether a live session exists.
func (b *Browser) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.browser != nil
}

// activePage returns the current page or ErrNotStarted.
func (b *Browser) activePage() (playwright.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.page == nil {
		return nil, ErrNotStarted
	}
	return b.page, nil
}

// withContext runs one driver call on its own goroutine so a cancelled or
// expired context releases the caller even when the browser is wedged. The
// abandoned call keeps running until the driver's own timeout reaps it.
func withContext(ctx context.Context, op func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- op() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Open navigates the active page. Bare hosts are opened over https.
func (b *Browser) Open(ctx context.Context, url string) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	url = NormalizeURL(url)
	return withContext(ctx, func() error {
		if _, err := page.Goto(url, playwright.PageGotoOptions{
			Timeout: playwright.Float(float64(gotoTimeout.Milliseconds())),
		}); err != nil {
			return fmt.Errorf("open %s: %w", url, err)
		}
		return nil
	})
}

// State indexes the visible interactive elements and snapshots the page.
func (b *Browser) State(ctx context.Context) (*PageState, error) {
	page, err := b.activePage()
	if err != nil {
		return nil, err
	}
	var state *PageState
	err = withContext(ctx, func() error {
		raw, err := page.Evaluate(indexScript)
		if err != nil {
			return fmt.Errorf("collect page state: %w", err)
		}
		title, err := page.Title()
		if err != nil {
			return fmt.Errorf("read page title: %w", err)
		}
		state = &PageState{
			URL:      page.URL(),
			Title:    title,
			Elements: parseElements(raw),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// reindex refreshes element indices right before an index-addressed action so
// the action targets the live DOM, not a stale snapshot.
func (b *Browser) reindex(page playwright.Page, index int) (string, error) {
	raw, err := page.Evaluate(indexScript)
	if err != nil {
		return "", fmt.Errorf("collect page state: %w", err)
	}
	elements := parseElements(raw)
	if index < 0 || index >= len(elements) {
		return "", fmt.Errorf("element index %d out of range (page has %d interactive elements)", index, len(elements))
	}
	return indexSelector(index), nil
}

// Click clicks the element at the given state index.
func (b *Browser) Click(ctx context.Context, index int) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		selector, err := b.reindex(page, index)
		if err != nil {
			return err
		}
		if err := page.Click(selector, playwright.PageClickOptions{
			Timeout: playwright.Float(float64(actionTimeout.Milliseconds())),
		}); err != nil {
			return fmt.Errorf("click element %d: %w", index, err)
		}
		return nil
	})
}

// Input fills the element at the given state index with text.
func (b *Browser) Input(ctx context.Context, index int, text string) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		selector, err := b.reindex(page, index)
		if err != nil {
			return err
		}
		if err := page.Fill(selector, text, playwright.PageFillOptions{
			Timeout: playwright.Float(float64(actionTimeout.Milliseconds())),
		}); err != nil {
			return fmt.Errorf("input into element %d: %w", index, err)
		}
		return nil
	})
}

// Type sends text through the keyboard to whatever element has focus.
func (b *Browser) Type(ctx context.Context, text string) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		if err := page.Keyboard().Type(text); err != nil {
			return fmt.Errorf("type text: %w", err)
		}
		return nil
	})
}

// PressKey presses a single key or combination, e.g. "Enter" or "Control+a".
func (b *Browser) PressKey(ctx context.Context, key string) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		if err := page.Keyboard().Press(key); err != nil {
			return fmt.Errorf("press key %q: %w", key, err)
		}
		return nil
	})
}

// Scroll moves the viewport by most of a screen in the given direction.
func (b *Browser) Scroll(ctx context.Context, direction string) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	script := "window.scrollBy(0, window.innerHeight * 0.8)"
	if direction == "up" {
		script = "window.scrollBy(0, -window.innerHeight * 0.8)"
	}
	return withContext(ctx, func() error {
		if _, err := page.Evaluate(script); err != nil {
			return fmt.Errorf("scroll %s: %w", direction, err)
		}
		return nil
	})
}

// Back navigates the active page one history entry back.
func (b *Browser) Back(ctx context.Context) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		if _, err := page.GoBack(); err != nil {
			return fmt.Errorf("go back: %w", err)
		}
		return nil
	})
}

// Refresh reloads the active page.
func (b *Browser) Refresh(ctx context.Context) error {
	page, err := b.activePage()
	if err != nil {
		return err
	}
	return withContext(ctx, func() error {
		if _, err := page.Reload(); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		return nil
	})
}

// Screenshot captures the viewport to a PNG file and returns its path. An
// empty path gets a timestamped name in the temp directory.
func (b *Browser) Screenshot(ctx context.Context, path string) (string, error) {
	page, err := b.activePage()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = filepath.Join(os.TempDir(),
			fmt.Sprintf("%s-screenshot-%s.png", config.AppName, time.Now().Format("20060102-150405")))
	}
	err = withContext(ctx, func() error {
		if _, err := page.Screenshot(playwright.PageScreenshotOptions{
			Path: playwright.String(path),
		}); err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// Tabs lists open tabs in context order.
func (b *Browser) Tabs(ctx context.Context) ([]TabInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil, ErrNotStarted
	}
	pages := b.browser.Pages()
	tabs := make([]TabInfo, 0, len(pages))
	for i, page := range pages {
		title, _ := page.Title()
		tabs = append(tabs, TabInfo{
			Index:  i,
			URL:    page.URL(),
			Title:  title,
			Active: page == b.page,
		})
	}
	return tabs, nil
}

// SwitchTab makes the tab at the given index the active page.
func (b *Browser) SwitchTab(ctx context.Context, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return ErrNotStarted
	}
	pages := b.browser.Pages()
	if index < 0 || index >= len(pages) {
		return fmt.Errorf("tab index %d out of range (have %d tabs)", index, len(pages))
	}
	page := pages[index]
	if err := page.BringToFront(); err != nil {
		return fmt.Errorf("switch to tab %d: %w", index, err)
	}
	page.SetDefaultTimeout(float64(actionTimeout.Milliseconds()))
	b.page = page
	return nil
}
