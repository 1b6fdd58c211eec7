// Package ladder orchestrates page extraction. A request climbs from a cache
// lookup through the SSRF guard, rendering and structural extraction, and
// escalates to vision extraction only when the structural candidate scores
// poorly or vision was requested.
package ladder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/hal"
	"github.com/google/uuid"
)

// Ladder defaults.
const (
	// DefaultRequestSlack is added to the render timeout to bound a whole run.
	DefaultRequestSlack = 30 * time.Second

	// MinRungChars is the text length below which a DOM rung is considered
	// to have failed and the next rung is tried.
	MinRungChars = 300
)

// Warnings reported on results.
const (
	WarnVisionUnavailable = "vision_unavailable: vision extraction is not configured"
	WarnAutoEscalated     = "auto mode switched to vision due to extraction heuristics"
	WarnHints             = "potential bot/captcha/paywall content detected"
	WarnBoilerplate       = "high navigation boilerplate ratio detected"
)

// Ladder runs extraction requests. The zero value is not usable: Validator,
// Cache, Renderer, Readability and Converter are required.
type Ladder struct {
	Validator hal.TargetValidator
	Cache     hal.CacheStore
	Renderer  hal.Renderer

	// Readability is the first DOM rung; Trafilatura, when set, the second.
	Readability hal.Extractor
	Trafilatura hal.Extractor
	Converter   hal.Converter

	// Optional DOM helpers. Text is used when the renderer reports no
	// visible text.
	Tables hal.TableExtractor
	Links  hal.LinkExtractor
	Text   hal.TextExtractor

	Scorer *hal.Scorer
	Vision hal.Vision
	Logger *slog.Logger

	// RenderTimeout applies when a request sets no timeout.
	RenderTimeout time.Duration

	// RequestTimeout bounds a whole run. Defaults to the render timeout
	// plus DefaultRequestSlack.
	RequestTimeout time.Duration

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

// Fetch runs one request through the ladder.
func (l *Ladder) Fetch(ctx context.Context, req *hal.FetchRequest) (*hal.Result, error) {
	if req == nil {
		return nil, hal.Errorf(hal.EINVALID, "request required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	renderTimeout := req.Wait.Timeout()
	if renderTimeout <= 0 {
		renderTimeout = l.renderTimeout()
	}
	timeout := l.RequestTimeout
	if timeout <= 0 {
		timeout = renderTimeout + DefaultRequestSlack
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := &run{
		id:            l.newID(),
		req:           req,
		renderOptions: req.RenderOptions(renderTimeout),
		now:           l.now().UTC(),
	}
	logger := l.logger().With("request_id", r.id)

	begin := time.Now()
	state := StateStart
	for !state.Terminal() {
		next := l.step(ctx, r, state)
		if ctx.Err() != nil && !next.Terminal() {
			r.err = ctx.Err()
			next = StateFailed
		}
		logger.Debug("ladder transition", "from", state, "to", next)
		state = next
	}

	if state == StateFailed {
		err := r.err
		if errors.Is(err, context.DeadlineExceeded) && hal.ErrorCode(err) != hal.ETIMEOUT {
			err = hal.Wrapf(hal.ETIMEOUT, err, "request for %s exceeded %s", req.URL, timeout)
		}
		logger.Info("browse", "url", req.URL, "duration", time.Since(begin), "err", err)
		return nil, err
	}

	logger.Info("browse",
		"url", req.URL,
		"mode", r.mode,
		"method", r.result.MethodUsed,
		"confidence", r.result.Confidence,
		"cached", r.result.Cached,
		"warnings", len(r.result.Warnings),
		"duration", time.Since(begin),
	)
	return r.result, nil
}

// Outcome is the result of one request of a batch.
type Outcome struct {
	Request *hal.FetchRequest
	Result  *hal.Result
	Err     error
}

func (l *Ladder) renderTimeout() time.Duration {
	if l.RenderTimeout > 0 {
		return l.RenderTimeout
	}
	return hal.DefaultTimeoutMS * time.Millisecond
}

func (l *Ladder) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (l *Ladder) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Ladder) newID() string {
	if l.NewID != nil {
		return l.NewID()
	}
	return uuid.New().String()
}

func (l *Ladder) scorer() *hal.Scorer {
	if l.Scorer != nil {
		return l.Scorer
	}
	return hal.NewScorer()
}

func (l *Ladder) vision() hal.Vision {
	if l.Vision != nil {
		return l.Vision
	}
	return hal.DisabledVision{}
}

// run is the in-flight state of one request. It is owned by a single
// goroutine and dropped when the run ends.
type run struct {
	id            string
	req           *hal.FetchRequest
	renderOptions hal.RenderOptions
	now           time.Time

	url      string
	mode     hal.Mode
	noVision bool
	key      hal.CacheKey

	rendering  *hal.Rendering
	candidate  *hal.Candidate
	assessment hal.Assessment
	warnings   []string

	result *hal.Result
	err    error
}

func (r *run) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *run) fail(err error) State {
	r.err = err
	return StateFailed
}
