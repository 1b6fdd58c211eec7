package mock

import (
	"context"

	"github.com/fwojciec/hal"
)

var _ hal.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of hal.Renderer.
type Renderer struct {
	RenderFn func(ctx context.Context, url string, opts hal.RenderOptions) (*hal.Rendering, error)
	CloseFn  func() error
}

func (r *Renderer) Render(ctx context.Context, url string, opts hal.RenderOptions) (*hal.Rendering, error) {
	return r.RenderFn(ctx, url, opts)
}

func (r *Renderer) Close() error {
	return r.CloseFn()
}
