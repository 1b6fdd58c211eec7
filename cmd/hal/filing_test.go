package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fwojciec/hal"
	main "github.com/fwojciec/hal/cmd/hal"
	"github.com/fwojciec/hal/filing"
	"github.com/fwojciec/hal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testResolver returns a resolver for a single company whose filings are
// never stored.
func testResolver(t *testing.T) *filing.Resolver {
	t.Helper()

	return &filing.Resolver{
		Index: &mock.FilingIndex{
			LookupCIKFn: func(_ context.Context, ticker string) (string, error) {
				if ticker != "MSFT" {
					return "", hal.Errorf(hal.EUNKNOWNTICKER, "ticker %s not found", ticker)
				}
				return "0000789019", nil
			},
			RecentFilingsFn: func(context.Context, string) ([]hal.FilingRecord, error) {
				return []hal.FilingRecord{{
					CIK:             "0000789019",
					Form:            "10-Q",
					FilingDate:      "2025-04-30",
					Accession:       "0000950170-25-061046",
					PrimaryDocument: "msft-20250331.htm",
				}}, nil
			},
		},
		Store: &mock.FilingStore{},
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*hal.Download, error) {
				return &hal.Download{URL: url, Body: []byte("<p>Cloud revenue grew.</p>")}, nil
			},
		},
		Converter: &mock.Converter{
			ConvertFn: func(string) (string, error) { return "Cloud revenue grew.", nil },
		},
	}
}

func TestFilingCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints a summary", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Filings = testResolver(t)
		cmd := &main.FilingCmd{Ticker: "msft", Forms: hal.DefaultForms, Format: "html", NoDownload: true}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "MSFT 10-Q filed 2025-04-30 (accession 0000950170-25-061046)")
		assert.Contains(t, stdout.String(), "source: https://www.sec.gov/Archives/edgar/data/789019/000095017025061046/msft-20250331.htm")
		assert.NotContains(t, stdout.String(), "Cloud revenue grew.")
		assert.Empty(t, stderr.String())
	})

	t.Run("text format prints the filing text", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Filings = testResolver(t)
		cmd := &main.FilingCmd{Ticker: "MSFT", Format: "text", NoDownload: true}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Cloud revenue grew.")
	})

	t.Run("prints JSON", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Filings = testResolver(t)
		cmd := &main.FilingCmd{Ticker: "MSFT", Format: "html", NoDownload: true, JSON: true}

		err := cmd.Run(deps)

		require.NoError(t, err)
		var result map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "0000789019", result["cik"])
		assert.Equal(t, "10-Q", result["form_type"])
		assert.Equal(t, "Cloud revenue grew.", result["text_markdown"])
	})

	t.Run("unknown ticker", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		deps := newDeps(stdout, stderr)
		deps.Filings = testResolver(t)
		cmd := &main.FilingCmd{Ticker: "NOPE", Format: "html", NoDownload: true}

		err := cmd.Run(deps)

		assert.Equal(t, hal.EUNKNOWNTICKER, hal.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: ticker NOPE not found")
		assert.Empty(t, stdout.String())
	})
}
