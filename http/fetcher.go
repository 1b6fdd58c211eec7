// Package http provides net/http implementations of the hal download path:
// the SSRF target validator, a redirect-validating document fetcher, and the
// SEC EDGAR filing index.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"github.com/fwojciec/hal"
	"golang.org/x/time/rate"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxRedirects = 10
	DefaultMaxBodyBytes = 64 << 20

	maxRetryAfter = time.Minute
)

// DefaultRetryDelays returns the backoff delays used between attempts on
// transport errors and 429/503 responses: 500ms, 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
}

// Ensure Fetcher implements hal.Fetcher at compile time.
var _ hal.Fetcher = (*Fetcher)(nil)

// Fetcher downloads documents over plain HTTP. Redirects are followed one
// hop at a time and every hop is checked by the validator before it is
// requested, so a public URL cannot bounce the fetcher onto an internal host.
// The address of every connection is checked again when it is dialed, so a
// name that resolves differently after validation cannot reach one either.
type Fetcher struct {
	client       *http.Client
	validator    hal.TargetValidator
	blockedAddr  func(netip.Addr) bool
	timeout      time.Duration
	userAgent    string
	limiter      *rate.Limiter
	retryDelays  []time.Duration
	maxRedirects int
	maxBodyBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for each HTTP request.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRateLimit caps requests at rps per second across all hosts.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryDelays sets the delays between attempts. The number of delays is
// the number of retries. Pass nil to disable retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelays = delays
	}
}

// WithMaxRedirects sets how many redirect hops are followed.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

// WithMaxBodyBytes caps the decoded response size.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// WithDialFilter replaces the check applied to the address of every
// connection. Defaults to hal.IsBlockedAddr.
func WithDialFilter(blocked func(netip.Addr) bool) Option {
	return func(f *Fetcher) {
		f.blockedAddr = blocked
	}
}

// NewFetcher creates a Fetcher that checks every URL it requests with validator.
func NewFetcher(validator hal.TargetValidator, opts ...Option) *Fetcher {
	f := &Fetcher{
		validator:    validator,
		blockedAddr:  hal.IsBlockedAddr,
		timeout:      DefaultFetchTimeout,
		retryDelays:  DefaultRetryDelays(),
		maxRedirects: DefaultMaxRedirects,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{
		Timeout:        30 * time.Second,
		KeepAlive:      30 * time.Second,
		ControlContext: f.checkDial,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	f.client = &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return f
}

// checkDial refuses connections to blocked addresses. It runs after name
// resolution, on the address actually dialed.
func (f *Fetcher) checkDial(_ context.Context, network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return hal.Blocked(hal.BlockPrivateNetwork, "cannot check %s address %q: %v", network, address, err)
	}
	if f.blockedAddr(ap.Addr()) {
		return hal.Blocked(hal.BlockPrivateNetwork, "connection to blocked address %s refused", ap.Addr())
	}
	return nil
}

// Fetch downloads rawURL, validating the target and each redirect hop.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*hal.Download, error) {
	if err := f.validator.Validate(ctx, rawURL); err != nil {
		return nil, err
	}

	current := rawURL
	for hop := 0; ; hop++ {
		resp, err := f.do(ctx, current)
		if err != nil {
			if hop > 0 && hal.ErrorCode(err) == hal.EBLOCKED {
				return nil, hal.Blocked(hal.BlockRedirect, "redirect to %s refused: %s", current, hal.ErrorMessage(err))
			}
			return nil, err
		}

		if !isRedirect(resp.StatusCode) {
			return f.download(rawURL, current, resp)
		}

		location := resp.Header.Get("Location")
		drain(resp)
		if location == "" {
			return nil, fmt.Errorf("HTTP %d without Location for %s", resp.StatusCode, current)
		}
		if hop >= f.maxRedirects {
			return nil, fmt.Errorf("stopped after %d redirects from %s", f.maxRedirects, rawURL)
		}

		next, err := resolveReference(current, location)
		if err != nil {
			return nil, hal.Blocked(hal.BlockRedirect, "invalid redirect from %s: %v", current, err)
		}
		if err := f.validator.Validate(ctx, next); err != nil {
			if hal.ErrorCode(err) == hal.EBLOCKED {
				return nil, hal.Blocked(hal.BlockRedirect, "redirect to %s refused: %s", next, hal.ErrorMessage(err))
			}
			return nil, err
		}
		current = next
	}
}

func (f *Fetcher) download(requested, final string, resp *http.Response) (*hal.Download, error) {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, hal.Errorf(hal.ENOTFOUND, "HTTP 404 for %s", final)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, final)
	}

	body, err := readBody(resp, f.maxBodyBytes)
	if err != nil {
		return nil, err
	}

	return &hal.Download{
		URL:         requested,
		FinalURL:    final,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// do issues a single GET, retrying transport errors and 429/503 responses.
func (f *Fetcher) do(ctx context.Context, rawURL string) (*http.Response, error) {
	var delay time.Duration
	var lastErr error
	for attempt := 0; ; attempt++ {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, hal.Errorf(hal.EINVALID, "invalid url %q: %v", rawURL, err)
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}
		req.Header.Set("Accept", "application/json, text/html;q=0.9, application/xml;q=0.8, */*;q=0.5")
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")

		var retryAfter time.Duration
		resp, err := f.client.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var blocked *hal.Error
			if errors.As(err, &blocked) && blocked.Code == hal.EBLOCKED {
				return nil, blocked
			}
			lastErr = fmt.Errorf("request %s: %w", rawURL, err)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			drain(resp)
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
		default:
			return resp, nil
		}

		if attempt >= len(f.retryDelays) {
			return nil, lastErr
		}
		delay = f.retryDelays[attempt]
		if retryAfter > 0 {
			delay = retryAfter
		}
	}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func resolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// parseRetryAfter reads a delay-seconds Retry-After value. HTTP dates are ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
