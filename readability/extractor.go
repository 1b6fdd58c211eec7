// Package readability implements the first structural rung of the
// extraction ladder with go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/hal"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements hal.Extractor at compile time.
var _ hal.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract the main article of a page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the readable article in rawHTML. Relative links in the
// article are resolved against pageURL when it parses.
func (e *Extractor) Extract(rawHTML, pageURL string) (*hal.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, hal.Errorf(hal.EINVALID, "empty HTML input")
	}

	var base *url.URL
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = strings.TrimSpace(article.SiteName)
	}

	return &hal.ExtractResult{
		Title:       title,
		ContentHTML: article.Content,
	}, nil
}
