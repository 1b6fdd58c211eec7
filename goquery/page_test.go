package goquery_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Links(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative links against the base URL", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="/docs/intro">Intro</a>
<a href="guide">Guide</a>
<a href="https://other.example.org/page">Other</a>
</body></html>`

		links, err := goquery.NewParser().Links(html, "https://example.com/docs/")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/docs/intro",
			"https://example.com/docs/guide",
			"https://other.example.org/page",
		}, links)
	})

	t.Run("skips non-http links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="javascript:void(0)">JS</a>
<a href="mailto:a@example.com">Mail</a>
<a href="tel:+15555555">Phone</a>
<a href="data:text/plain,hi">Data</a>
<a href="ftp://example.com/file">FTP</a>
<a href="">Empty</a>
<a href="/ok">OK</a>
</body></html>`

		links, err := goquery.NewParser().Links(html, "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/ok"}, links)
	})

	t.Run("strips fragments and drops duplicates and self links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="#top">Top</a>
<a href="/a#one">A1</a>
<a href="/a#two">A2</a>
<a href="/a">A3</a>
<a href="/b">B</a>
</body></html>`

		links, err := goquery.NewParser().Links(html, "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, links)
	})

	t.Run("caps links at the configured maximum", func(t *testing.T) {
		t.Parallel()

		var b strings.Builder
		b.WriteString("<html><body>")
		for i := range hal.MaxLinks + 50 {
			fmt.Fprintf(&b, `<a href="/page/%d">p</a>`, i)
		}
		b.WriteString("</body></html>")

		links, err := goquery.NewParser().Links(b.String(), "https://example.com/")

		require.NoError(t, err)
		assert.Len(t, links, hal.MaxLinks)
		assert.Equal(t, "https://example.com/page/0", links[0])
	})

	t.Run("returns empty slice when page has no links", func(t *testing.T) {
		t.Parallel()

		links, err := goquery.NewParser().Links("<html><body><p>none</p></body></html>", "https://example.com/")

		require.NoError(t, err)
		assert.Empty(t, links)
		assert.NotNil(t, links)
	})

	t.Run("rejects an invalid base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewParser().Links("<a href='/x'>x</a>", "://bad")

		require.Error(t, err)
		assert.Equal(t, hal.EINVALID, hal.ErrorCode(err))
	})
}

func TestParser_Text(t *testing.T) {
	t.Parallel()

	t.Run("returns visible text one block per line", func(t *testing.T) {
		t.Parallel()

		html := `<html>
<head><title>Ignored</title><style>body { color: red; }</style></head>
<body>
<script>var x = 1;</script>
<h1>Heading</h1>
<p>First   paragraph.</p>
<div>Second <b>block</b></div>
<noscript>Enable JS</noscript>
</body></html>`

		text, err := goquery.NewParser().Text(html)

		require.NoError(t, err)
		assert.Equal(t, "Heading\nFirst paragraph.\nSecond block", text)
	})

	t.Run("returns empty string for an empty body", func(t *testing.T) {
		t.Parallel()

		text, err := goquery.NewParser().Text("<html><body></body></html>")

		require.NoError(t, err)
		assert.Empty(t, text)
	})
}

func TestParser_Tables(t *testing.T) {
	t.Parallel()

	t.Run("renders a table as markdown", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><th>Name</th><th>Value</th></tr>
<tr><td>Revenue</td><td>$1,000</td></tr>
<tr><td>Cost</td><td>a | b</td></tr>
</table>`

		md, err := goquery.NewParser().Tables(html)

		require.NoError(t, err)
		assert.Equal(t, "| Name | Value |\n| --- | --- |\n| Revenue | $1,000 |\n| Cost | a \\| b |", md)
	})

	t.Run("pads short rows to the widest row", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><td>A</td></tr>
<tr><td>B</td><td>C</td></tr>
</table>`

		md, err := goquery.NewParser().Tables(html)

		require.NoError(t, err)
		assert.Equal(t, "| A |  |\n| --- | --- |\n| B | C |", md)
	})

	t.Run("separates tables with a blank line and skips empty ones", func(t *testing.T) {
		t.Parallel()

		html := `<table><tr><td>one</td></tr></table>
<table><tr><td> </td></tr></table>
<table><tr><td>two</td></tr></table>`

		md, err := goquery.NewParser().Tables(html)

		require.NoError(t, err)
		assert.Equal(t, "| one |\n| --- |\n\n| two |\n| --- |", md)
	})

	t.Run("returns empty string without tables", func(t *testing.T) {
		t.Parallel()

		md, err := goquery.NewParser().Tables("<p>no tables</p>")

		require.NoError(t, err)
		assert.Empty(t, md)
	})
}
