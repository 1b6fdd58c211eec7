package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/hal"
)

// Ensure LoggingValidator implements hal.TargetValidator.
var _ hal.TargetValidator = (*LoggingValidator)(nil)

// LoggingValidator wraps a TargetValidator and logs refused targets.
type LoggingValidator struct {
	next   hal.TargetValidator
	logger *slog.Logger
}

// NewLoggingValidator creates a new LoggingValidator.
func NewLoggingValidator(next hal.TargetValidator, logger *slog.Logger) *LoggingValidator {
	return &LoggingValidator{next: next, logger: logger}
}

// Validate delegates to the wrapped validator. Accepted targets are logged
// at debug level, refused ones as warnings.
func (v *LoggingValidator) Validate(ctx context.Context, rawURL string) (err error) {
	defer func(begin time.Time) {
		if err == nil {
			v.logger.Debug("target allowed", "url", rawURL, "duration", time.Since(begin))
			return
		}
		v.logger.Warn("target refused",
			"url", rawURL,
			"reason", hal.ErrorReason(err),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return v.next.Validate(ctx, rawURL)
}
