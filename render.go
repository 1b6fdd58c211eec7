package hal

import (
	"context"
	"time"
)

// MaxLinks caps the number of links a renderer reports per page.
const MaxLinks = 200

// RenderOptions configures a single render.
type RenderOptions struct {
	Timeout      time.Duration
	NetworkIdle  bool
	WaitSelector string

	// FullPage captures the whole scrollable page instead of the viewport.
	FullPage bool

	// ScreenshotSelectors adds one element screenshot per matching selector.
	ScreenshotSelectors []string
}

// Screenshot is a captured PNG image.
type Screenshot struct {
	// Name is a short file-safe label such as "full" or "selector_0".
	Name string
	Data []byte
}

// Rendering is the output of a successful render.
type Rendering struct {
	URL      string
	FinalURL string
	Title    string
	HTML     string

	// Text is the page's visible text as reported by the browser.
	Text string

	Links       []string
	Screenshots []Screenshot
}

// Renderer turns a URL into rendered HTML, visible text and screenshots.
type Renderer interface {
	// Render loads the URL and captures the page.
	// Returns ETIMEOUT when opts.Timeout elapses, ENAVIGATION when the page
	// cannot be loaded, and EBLOCKED when a redirect hop targets a blocked host.
	Render(ctx context.Context, url string, opts RenderOptions) (*Rendering, error)

	// Close releases browser resources.
	Close() error
}
