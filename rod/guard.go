package rod

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/hal"
)

// guard validates every request a page makes. Verdicts are memoized per
// origin for the lifetime of one render.
type guard struct {
	ctx       context.Context
	validator hal.TargetValidator

	mu       sync.Mutex
	verdicts map[string]error
	blocked  error
}

func newGuard(ctx context.Context, validator hal.TargetValidator) *guard {
	return &guard{
		ctx:       ctx,
		validator: validator,
		verdicts:  make(map[string]error),
	}
}

// check returns nil when u may be requested. Only http(s) URLs are checked;
// data:, blob: and similar never leave the browser.
func (g *guard) check(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	origin := u.Scheme + "://" + u.Host

	g.mu.Lock()
	verdict, ok := g.verdicts[origin]
	g.mu.Unlock()
	if ok {
		return verdict
	}

	err := g.validator.Validate(g.ctx, u.String())
	if err != nil && hal.ErrorCode(err) != hal.EBLOCKED {
		// Cancellation and other transient failures are not memoized.
		return err
	}

	g.mu.Lock()
	g.verdicts[origin] = err
	g.mu.Unlock()
	return err
}

// refuseDocument records that a document request to u was refused. The page
// URL itself is validated before rendering, so a refused top-level document
// is a redirect hop. The first refusal wins.
func (g *guard) refuseDocument(u *url.URL, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.blocked == nil {
		g.blocked = hal.Blocked(hal.BlockRedirect, "redirect to %s refused: %s", u, hal.ErrorMessage(err))
	}
}

// err returns the first refused document request, if any.
func (g *guard) err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blocked
}
