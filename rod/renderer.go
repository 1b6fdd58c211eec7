// Package rod renders pages in headless Chrome using go-rod.
package rod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/hal"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// requestIdle is how long the network must be quiet to count as idle.
const requestIdle = 500 * time.Millisecond

const (
	innerTextJS = `() => document.body ? document.body.innerText : ''`
	linksJS     = `(max) => Array.from(document.querySelectorAll('a[href]')).map(a => a.href).filter(Boolean).slice(0, max)`
)

// Ensure Renderer implements hal.Renderer at compile time.
var _ hal.Renderer = (*Renderer)(nil)

// Renderer captures pages with headless Chrome. Every request the page makes,
// including redirect hops and subresources, passes the TargetValidator.
// Renderer is safe for concurrent use by multiple goroutines.
type Renderer struct {
	manager   *BrowserManager
	validator hal.TargetValidator
}

// NewRenderer creates a Renderer drawing pages from manager.
// Close must be called when the Renderer is no longer needed.
func NewRenderer(manager *BrowserManager, validator hal.TargetValidator) *Renderer {
	return &Renderer{manager: manager, validator: validator}
}

// Render navigates to url and captures title, HTML, visible text, links
// and screenshots.
func (r *Renderer) Render(ctx context.Context, url string, opts hal.RenderOptions) (*hal.Rendering, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	base, release, err := r.manager.Page()
	if err != nil {
		return nil, err
	}
	defer release()

	page := base.Context(ctx)
	g := newGuard(ctx, r.validator)

	router := page.HijackRequests()
	if err := router.Add("*", "", func(h *rod.Hijack) {
		u := h.Request.URL()
		if err := g.check(u); err != nil {
			if h.Request.Type() == proto.NetworkResourceTypeDocument {
				g.refuseDocument(u, err)
			}
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	}); err != nil {
		return nil, r.fail(ctx, g, url, err)
	}
	go router.Run()
	defer func() { _ = router.Stop() }()

	evCtx, stopEvents := context.WithCancel(ctx)
	defer stopEvents()
	doc := &documentStatus{}
	waitEvents := page.Context(evCtx).EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type == proto.NetworkResourceTypeDocument && e.FrameID == page.FrameID {
			doc.set(e.Response.Status, e.Response.URL)
		}
	})
	go waitEvents()

	var waitDOM func()
	if !opts.NetworkIdle {
		waitDOM = page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	}

	if err := page.Navigate(url); err != nil {
		return nil, r.fail(ctx, g, url, err)
	}

	if opts.NetworkIdle {
		if err := page.WaitLoad(); err != nil {
			return nil, r.fail(ctx, g, url, err)
		}
		page.WaitRequestIdle(requestIdle, nil, nil, nil)()
	} else {
		waitDOM()
	}
	if err := g.err(); err != nil && mainFrameFailed(page) {
		return nil, err
	}
	if status, _ := doc.get(); status >= 400 {
		return nil, hal.Errorf(hal.ENAVIGATION, "HTTP %d for %s", status, url)
	}

	if opts.WaitSelector != "" {
		if _, err := page.Element(opts.WaitSelector); err != nil {
			return nil, r.fail(ctx, g, url, fmt.Errorf("waiting for selector %q: %w", opts.WaitSelector, err))
		}
	}

	rendering, err := capture(page, url, opts)
	if err != nil {
		return nil, r.fail(ctx, g, url, err)
	}
	if _, final := doc.get(); final != "" && rendering.FinalURL == "" {
		rendering.FinalURL = final
	}
	return rendering, nil
}

// mainFrameFailed reports whether the page ended on Chrome's error page,
// which is where a refused top-level navigation lands. A refused frame
// document leaves the page itself intact.
func mainFrameFailed(page *rod.Page) bool {
	info, err := page.Info()
	return err != nil || strings.HasPrefix(info.URL, "chrome-error:")
}

// capture reads the rendered page.
func capture(page *rod.Page, url string, opts hal.RenderOptions) (*hal.Rendering, error) {
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("reading page info: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("reading HTML: %w", err)
	}

	text, err := page.Eval(innerTextJS)
	if err != nil {
		return nil, fmt.Errorf("reading visible text: %w", err)
	}

	res, err := page.Eval(linksJS, hal.MaxLinks)
	if err != nil {
		return nil, fmt.Errorf("reading links: %w", err)
	}
	links := []string{}
	for _, v := range res.Value.Arr() {
		if link := v.Str(); link != "" {
			links = append(links, link)
		}
	}

	shots, err := screenshots(page, opts)
	if err != nil {
		return nil, err
	}

	return &hal.Rendering{
		URL:         url,
		FinalURL:    info.URL,
		Title:       info.Title,
		HTML:        html,
		Text:        text.Value.Str(),
		Links:       links,
		Screenshots: shots,
	}, nil
}

// screenshots takes one page screenshot plus one per selector that matches.
// Selectors matching nothing are skipped.
func screenshots(page *rod.Page, opts hal.RenderOptions) ([]hal.Screenshot, error) {
	data, err := page.Screenshot(opts.FullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("taking screenshot: %w", err)
	}
	shots := []hal.Screenshot{{Name: "full", Data: data}}

	for i, selector := range opts.ScreenshotSelectors {
		el, err := page.Sleeper(rod.NotFoundSleeper).Element(selector)
		if err != nil {
			continue
		}
		data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			continue
		}
		shots = append(shots, hal.Screenshot{Name: fmt.Sprintf("selector_%d", i), Data: data})
	}
	return shots, nil
}

// fail maps a browser error to an application error. A refused redirect
// wins over whatever the browser reported for it.
func (r *Renderer) fail(ctx context.Context, g *guard, url string, err error) error {
	if blocked := g.err(); blocked != nil {
		return blocked
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return hal.Wrapf(hal.ETIMEOUT, context.DeadlineExceeded, "render of %s timed out", url)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var appErr *hal.Error
	if errors.As(err, &appErr) {
		return err
	}
	return hal.Wrapf(hal.ENAVIGATION, err, "navigation to %s failed: %v", url, err)
}

// Close releases browser resources.
func (r *Renderer) Close() error {
	return r.manager.Close()
}

// documentStatus is the last main-frame document response.
type documentStatus struct {
	mu     sync.Mutex
	status int
	url    string
}

func (d *documentStatus) set(status int, url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status, d.url = status, url
}

func (d *documentStatus) get() (int, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status, d.url
}
