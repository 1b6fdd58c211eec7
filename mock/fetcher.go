package mock

import (
	"context"

	"github.com/fwojciec/hal"
)

var _ hal.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of hal.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*hal.Download, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*hal.Download, error) {
	return f.FetchFn(ctx, url)
}
