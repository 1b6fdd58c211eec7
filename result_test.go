package hal_test

import (
	"context"
	"testing"

	"github.com/fwojciec/hal"
	"github.com/stretchr/testify/assert"
)

func TestCitations(t *testing.T) {
	t.Parallel()

	t.Run("dom results cite only the url", func(t *testing.T) {
		t.Parallel()

		got := hal.Citations("https://example.com/", hal.MethodDOM, []string{"/cache/full.png"})

		assert.Equal(t, []hal.Citation{{Type: hal.CitationURL, Value: "https://example.com/"}}, got)
	})

	t.Run("vision results also cite screenshots", func(t *testing.T) {
		t.Parallel()

		got := hal.Citations("https://example.com/", hal.MethodVision, []string{"/cache/full.png", "/cache/selector_0.png"})

		assert.Equal(t, []hal.Citation{
			{Type: hal.CitationURL, Value: "https://example.com/"},
			{Type: hal.CitationScreenshot, Value: "/cache/full.png"},
			{Type: hal.CitationScreenshot, Value: "/cache/selector_0.png"},
		}, got)
	})
}

func TestDisabledVision(t *testing.T) {
	t.Parallel()

	v := hal.DisabledVision{Reason: "GEMINI_API_KEY not set"}

	assert.False(t, v.Available())
	_, err := v.Extract(context.Background(), &hal.VisionRequest{URL: "https://example.com"})
	assert.Equal(t, hal.EVISIONUNAVAILABLE, hal.ErrorCode(err))
	assert.Equal(t, "GEMINI_API_KEY not set", hal.ErrorMessage(err))
}
