package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/hal"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the default number of pages before browser recycling.
const DefaultMaxPages = 75

// pageCloseTimeout bounds closing a page whose render context has expired.
const pageCloseTimeout = 5 * time.Second

// generation is one launched browser. A recycled generation stays alive
// until its last page is released.
type generation struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    int64
	active   int
	retired  bool
}

func (g *generation) close() error {
	var err error
	if g.browser != nil {
		err = g.browser.Close()
	}
	if g.launcher != nil {
		g.launcher.Kill()
	}
	return err
}

// BrowserManager manages browser lifecycle with automatic recycling to prevent
// memory accumulation. Chrome accumulates memory over time and the baseline
// never returns to initial levels even with proper page cleanup, so the
// browser is replaced after maxPages pages. Pages still open on a recycled
// browser finish before it is shut down.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *generation
	maxPages int64
	bin      string
	sandbox  bool
	closed   bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the maximum number of pages before the browser is recycled.
// Defaults to 75 if not specified.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithBrowserBin runs the Chrome binary at path instead of the one the
// launcher finds or downloads.
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// WithoutSandbox disables the Chrome sandbox, which is required when
// running as root inside containers.
func WithoutSandbox() ManagerOption {
	return func(bm *BrowserManager) {
		bm.sandbox = false
	}
}

// NewBrowserManager creates a new BrowserManager that launches a headless Chrome browser.
// The browser will be recycled after maxPages (default 75) pages have been processed.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		sandbox:  true,
	}
	for _, opt := range opts {
		opt(bm)
	}

	gen, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = gen

	return bm, nil
}

// Page opens a blank page, recycling the browser first if it has served
// maxPages pages. The returned release func closes the page and must be
// called exactly once. Returns EINVALID after Close.
func (bm *BrowserManager) Page() (*rod.Page, func(), error) {
	bm.mu.Lock()
	if bm.closed {
		bm.mu.Unlock()
		return nil, nil, hal.Errorf(hal.EINVALID, "renderer is closed")
	}
	if bm.current.pages >= bm.maxPages {
		bm.recycle()
	}
	gen := bm.current
	gen.pages++
	gen.active++
	bm.mu.Unlock()

	page, err := gen.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		bm.release(gen)
		return nil, nil, fmt.Errorf("opening page: %w", err)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), pageCloseTimeout)
		defer cancel()
		_ = page.Context(ctx).Close()
		bm.release(gen)
	}
	return page, release, nil
}

// release marks a page of gen as finished and shuts gen down when it was
// retired and this was its last page.
func (bm *BrowserManager) release(gen *generation) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	gen.active--
	if gen.retired && gen.active == 0 {
		_ = gen.close()
	}
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	bm.current.retired = true
	return bm.current.close()
}

// launch starts a new browser instance with stability flags.
func (bm *BrowserManager) launch() (*generation, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		NoSandbox(!bm.sandbox).
		Leakless(true).
		Headless(true)
	if bm.bin != "" {
		lnchr = lnchr.Bin(bm.bin)
	}

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &generation{browser: browser, launcher: lnchr}, nil
}

// recycle starts a fresh browser and retires the current one.
// If launching the new browser fails, the current browser is kept.
// Must be called with mu held.
func (bm *BrowserManager) recycle() {
	next, err := bm.launch()
	if err != nil {
		return
	}

	old := bm.current
	old.retired = true
	if old.active == 0 {
		_ = old.close()
	}
	bm.current = next
}

// LauncherPID returns the process ID of the current browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil || bm.current.launcher == nil {
		return 0
	}
	return bm.current.launcher.PID()
}

// Browser returns the current browser instance.
// This method exists for testing purposes to observe recycling.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.current.browser
}
