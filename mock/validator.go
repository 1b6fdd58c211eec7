package mock

import (
	"context"

	"github.com/fwojciec/hal"
)

var _ hal.TargetValidator = (*TargetValidator)(nil)

// TargetValidator is a mock implementation of hal.TargetValidator.
type TargetValidator struct {
	ValidateFn func(ctx context.Context, rawURL string) error
}

func (v *TargetValidator) Validate(ctx context.Context, rawURL string) error {
	return v.ValidateFn(ctx, rawURL)
}

// AllowAll returns a TargetValidator that accepts every URL.
func AllowAll() *TargetValidator {
	return &TargetValidator{
		ValidateFn: func(context.Context, string) error { return nil },
	}
}
