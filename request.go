package hal

import (
	"net/url"
	"strings"
	"time"
)

// Mode selects which rungs of the extraction ladder a request may use.
type Mode string

// Extraction modes.
const (
	ModeAuto   Mode = "auto"
	ModeDOM    Mode = "dom"
	ModeVision Mode = "vision"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeDOM, ModeVision:
		return true
	}
	return false
}

// DefaultTimeoutMS is the render timeout used when neither the request nor
// the configuration sets one.
const DefaultTimeoutMS = 20000

// WaitOptions controls how long the renderer waits before capturing a page.
type WaitOptions struct {
	TimeoutMS   int    `json:"timeout_ms"`
	NetworkIdle bool   `json:"network_idle"`
	Selector    string `json:"selector,omitempty"`
}

// Timeout returns TimeoutMS as a duration.
func (w WaitOptions) Timeout() time.Duration {
	return time.Duration(w.TimeoutMS) * time.Millisecond
}

// ScreenshotOptions controls which screenshots the renderer captures.
type ScreenshotOptions struct {
	FullPage  bool     `json:"full_page"`
	Selectors []string `json:"selectors,omitempty"`
}

// FetchRequest asks for the main content of a single page.
type FetchRequest struct {
	URL        string            `json:"url"`
	Mode       Mode              `json:"mode"`
	Wait       WaitOptions       `json:"wait"`
	Screenshot ScreenshotOptions `json:"screenshot"`
}

// NewFetchRequest returns a request for rawURL with default options. The
// timeout is left zero so that the configured render timeout applies.
// Decoding JSON into the returned value keeps defaults for omitted fields.
func NewFetchRequest(rawURL string) *FetchRequest {
	return &FetchRequest{
		URL:  rawURL,
		Mode: ModeAuto,
		Wait: WaitOptions{
			NetworkIdle: true,
		},
		Screenshot: ScreenshotOptions{FullPage: true},
	}
}

// Validate returns an error if the request contains invalid fields.
func (r *FetchRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return Errorf(EINVALID, "url required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return Errorf(EINVALID, "invalid url: %v", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return Errorf(EINVALID, "url must be absolute http or https: %q", r.URL)
	}
	if u.Hostname() == "" {
		return Errorf(EINVALID, "url must include a hostname")
	}
	if !r.Mode.Valid() {
		return Errorf(EINVALID, "unknown mode %q", r.Mode)
	}
	if r.Wait.TimeoutMS < 0 {
		return Errorf(EINVALID, "timeout must not be negative")
	}
	return nil
}

// RenderOptions converts the request's wait and screenshot settings into
// renderer options. A zero timeout falls back to fallback.
func (r *FetchRequest) RenderOptions(fallback time.Duration) RenderOptions {
	timeout := r.Wait.Timeout()
	if timeout <= 0 {
		timeout = fallback
	}
	return RenderOptions{
		Timeout:             timeout,
		NetworkIdle:         r.Wait.NetworkIdle,
		WaitSelector:        r.Wait.Selector,
		FullPage:            r.Screenshot.FullPage,
		ScreenshotSelectors: r.Screenshot.Selectors,
	}
}
