package mock

import (
	"context"

	"github.com/fwojciec/hal"
)

var _ hal.Vision = (*Vision)(nil)

// Vision is a mock implementation of hal.Vision.
type Vision struct {
	AvailableFn func() bool
	ExtractFn   func(ctx context.Context, req *hal.VisionRequest) (*hal.VisionResult, error)
}

func (v *Vision) Available() bool {
	return v.AvailableFn()
}

func (v *Vision) Extract(ctx context.Context, req *hal.VisionRequest) (*hal.VisionResult, error) {
	return v.ExtractFn(ctx, req)
}
