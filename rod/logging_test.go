package rod_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/mock"
	"github.com/fwojciec/hal/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("logs successful render", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Renderer{
			RenderFn: func(context.Context, string, hal.RenderOptions) (*hal.Rendering, error) {
				return &hal.Rendering{
					FinalURL:    "https://example.com/final",
					HTML:        "<html></html>",
					Screenshots: []hal.Screenshot{{Name: "full"}},
				}, nil
			},
		}

		r := rod.NewLoggingRenderer(inner, logger)
		rendering, err := r.Render(context.Background(), "https://example.com", hal.RenderOptions{})

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/final", rendering.FinalURL)
		out := buf.String()
		assert.Contains(t, out, "msg=render")
		assert.Contains(t, out, "url=https://example.com")
		assert.Contains(t, out, "final_url=https://example.com/final")
		assert.Contains(t, out, "bytes=13")
		assert.Contains(t, out, "screenshots=1")
		assert.Contains(t, out, "duration=")
	})

	t.Run("logs render error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Renderer{
			RenderFn: func(context.Context, string, hal.RenderOptions) (*hal.Rendering, error) {
				return nil, hal.Errorf(hal.ETIMEOUT, "render timed out")
			},
		}

		r := rod.NewLoggingRenderer(inner, logger)
		_, err := r.Render(context.Background(), "https://example.com", hal.RenderOptions{})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "render_timeout")
		assert.NotContains(t, buf.String(), "final_url")
	})

	t.Run("close delegates", func(t *testing.T) {
		t.Parallel()

		closed := false
		inner := &mock.Renderer{CloseFn: func() error { closed = true; return nil }}

		require.NoError(t, rod.NewLoggingRenderer(inner, slog.Default()).Close())
		assert.True(t, closed)
	})
}
