package rod

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/hal"
)

// Ensure LoggingRenderer implements hal.Renderer.
var _ hal.Renderer = (*LoggingRenderer)(nil)

// LoggingRenderer wraps a Renderer with logging.
type LoggingRenderer struct {
	next   hal.Renderer
	logger *slog.Logger
}

// NewLoggingRenderer creates a new LoggingRenderer.
func NewLoggingRenderer(next hal.Renderer, logger *slog.Logger) *LoggingRenderer {
	return &LoggingRenderer{next: next, logger: logger}
}

// Render logs the URL being rendered and delegates to the wrapped renderer.
func (r *LoggingRenderer) Render(ctx context.Context, url string, opts hal.RenderOptions) (rendering *hal.Rendering, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		}
		if rendering != nil {
			attrs = append(attrs,
				"final_url", rendering.FinalURL,
				"bytes", len(rendering.HTML),
				"screenshots", len(rendering.Screenshots),
			)
		}
		r.logger.Info("render", attrs...)
	}(time.Now())
	return r.next.Render(ctx, url, opts)
}

// Close delegates to the wrapped renderer.
func (r *LoggingRenderer) Close() error {
	return r.next.Close()
}
