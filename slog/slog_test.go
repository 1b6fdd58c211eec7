package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/mock"
	halslog "github.com/fwojciec/hal/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingVision_Extract(t *testing.T) {
	t.Parallel()

	t.Run("logs extraction with chars and confidence", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Vision{
			AvailableFn: func() bool { return true },
			ExtractFn: func(context.Context, *hal.VisionRequest) (*hal.VisionResult, error) {
				return &hal.VisionResult{Text: "hello", Confidence: 0.75}, nil
			},
		}

		v := halslog.NewLoggingVision(inner, newLogger(&buf))
		result, err := v.Extract(context.Background(), &hal.VisionRequest{
			URL:         "https://example.com",
			Screenshots: []hal.Screenshot{{Name: "full"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "hello", result.Text)
		assert.True(t, v.Available())
		out := buf.String()
		assert.Contains(t, out, `msg="vision extract"`)
		assert.Contains(t, out, "screenshots=1")
		assert.Contains(t, out, "chars=5")
		assert.Contains(t, out, "confidence=0.75")
		assert.Contains(t, out, "duration=")
	})

	t.Run("logs extraction error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Vision{
			ExtractFn: func(context.Context, *hal.VisionRequest) (*hal.VisionResult, error) {
				return nil, errors.New("quota exceeded")
			},
		}

		_, err := halslog.NewLoggingVision(inner, newLogger(&buf)).Extract(context.Background(), &hal.VisionRequest{})

		require.Error(t, err)
		assert.Contains(t, buf.String(), `err="quota exceeded"`)
		assert.NotContains(t, buf.String(), "chars=")
	})
}

func TestLoggingCacheStore(t *testing.T) {
	t.Parallel()

	t.Run("logs hit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.CacheStore{
			GetFn: func(context.Context, hal.CacheKey) (*hal.Artifact, error) {
				return &hal.Artifact{}, nil
			},
		}

		_, err := halslog.NewLoggingCacheStore(inner, newLogger(&buf)).Get(context.Background(), "abc")

		require.NoError(t, err)
		out := buf.String()
		assert.Contains(t, out, "level=INFO")
		assert.Contains(t, out, "key=abc")
		assert.Contains(t, out, "hit=true")
	})

	t.Run("logs miss at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.CacheStore{
			GetFn: func(context.Context, hal.CacheKey) (*hal.Artifact, error) {
				return nil, hal.Errorf(hal.ENOTFOUND, "cache miss")
			},
		}

		_, err := halslog.NewLoggingCacheStore(inner, newLogger(&buf)).Get(context.Background(), "abc")

		assert.Equal(t, hal.ENOTFOUND, hal.ErrorCode(err))
		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "hit=false")
		assert.NotContains(t, out, "err=")
	})

	t.Run("logs put", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.CacheStore{
			PutFn: func(context.Context, hal.CacheKey, *hal.Artifact) error {
				return hal.Errorf(hal.ECACHEIO, "disk full")
			},
		}

		err := halslog.NewLoggingCacheStore(inner, newLogger(&buf)).Put(context.Background(), "abc", &hal.Artifact{
			Result: hal.Result{URL: "https://example.com/"},
		})

		require.Error(t, err)
		out := buf.String()
		assert.Contains(t, out, `msg="cache put"`)
		assert.Contains(t, out, "url=https://example.com/")
		assert.Contains(t, out, "cache_io_error")
	})
}

func TestLoggingFilingIndex(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.FilingIndex{
		LookupCIKFn: func(context.Context, string) (string, error) {
			return "0000320193", nil
		},
		RecentFilingsFn: func(context.Context, string) ([]hal.FilingRecord, error) {
			return []hal.FilingRecord{{}, {}}, nil
		},
		ListDocumentsFn: func(context.Context, *hal.FilingRecord) ([]hal.FilingDocument, error) {
			return nil, errors.New("listing failed")
		},
	}
	idx := halslog.NewLoggingFilingIndex(inner, newLogger(&buf))

	cik, err := idx.LookupCIK(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)

	filings, err := idx.RecentFilings(context.Background(), cik)
	require.NoError(t, err)
	assert.Len(t, filings, 2)

	_, err = idx.ListDocuments(context.Background(), &hal.FilingRecord{CIK: cik, Accession: "0000320193-24-000123"})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="cik lookup" ticker=AAPL cik=0000320193`)
	assert.Contains(t, out, `msg="recent filings" cik=0000320193 count=2`)
	assert.Contains(t, out, "accession=0000320193-24-000123")
	assert.Contains(t, out, `err="listing failed"`)
}

func TestLoggingValidator_Validate(t *testing.T) {
	t.Parallel()

	t.Run("logs refused target with reason", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.TargetValidator{
			ValidateFn: func(context.Context, string) error {
				return hal.Blocked(hal.BlockPrivateNetwork, "127.0.0.1 is private")
			},
		}

		err := halslog.NewLoggingValidator(inner, newLogger(&buf)).Validate(context.Background(), "http://localhost/")

		assert.Equal(t, hal.EBLOCKED, hal.ErrorCode(err))
		out := buf.String()
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, "reason=private_network")
	})

	t.Run("logs allowed target at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		err := halslog.NewLoggingValidator(mock.AllowAll(), newLogger(&buf)).Validate(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), `msg="target allowed"`)
	})
}

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*hal.Download, error) {
				return &hal.Download{Body: []byte("<html>content</html>")}, nil
			},
		}

		dl, err := halslog.NewLoggingFetcher(inner, newLogger(&buf)).Fetch(context.Background(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", string(dl.Body))
		out := buf.String()
		assert.Contains(t, out, "msg=fetch")
		assert.Contains(t, out, "bytes=20")
		assert.Contains(t, out, "duration=")
	})

	t.Run("logs fetch error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*hal.Download, error) {
				return nil, errors.New("connection refused")
			},
		}

		_, err := halslog.NewLoggingFetcher(inner, newLogger(&buf)).Fetch(context.Background(), "https://example.com")

		require.Error(t, err)
		assert.Contains(t, buf.String(), "bytes=0")
		assert.Contains(t, buf.String(), `err="connection refused"`)
	})
}
