// Package slog decorates hal collaborators with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/hal"
)

// Ensure LoggingVision implements hal.Vision.
var _ hal.Vision = (*LoggingVision)(nil)

// LoggingVision wraps a Vision with logging.
type LoggingVision struct {
	next   hal.Vision
	logger *slog.Logger
}

// NewLoggingVision creates a new LoggingVision.
func NewLoggingVision(next hal.Vision, logger *slog.Logger) *LoggingVision {
	return &LoggingVision{next: next, logger: logger}
}

// Available delegates to the wrapped vision.
func (v *LoggingVision) Available() bool {
	return v.next.Available()
}

// Extract delegates to the wrapped vision and logs the call.
func (v *LoggingVision) Extract(ctx context.Context, req *hal.VisionRequest) (result *hal.VisionResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", req.URL,
			"screenshots", len(req.Screenshots),
			"duration", time.Since(begin),
			"err", err,
		}
		if result != nil {
			attrs = append(attrs, "chars", len(result.Text), "confidence", result.Confidence)
		}
		v.logger.Info("vision extract", attrs...)
	}(time.Now())
	return v.next.Extract(ctx, req)
}
