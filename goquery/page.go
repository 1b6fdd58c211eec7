// Package goquery implements the DOM helpers of the extraction ladder with
// goquery: table rendering, link collection and visible text.
package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/bloom"
)

// Ensure Parser implements the hal DOM helper interfaces at compile time.
var (
	_ hal.TableExtractor = (*Parser)(nil)
	_ hal.LinkExtractor  = (*Parser)(nil)
	_ hal.TextExtractor  = (*Parser)(nil)
)

// Parser reads tables, links and visible text out of HTML documents.
type Parser struct {
	// MaxLinks caps the links returned by Links. Defaults to hal.MaxLinks.
	MaxLinks int
}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{MaxLinks: hal.MaxLinks}
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, hal.Errorf(hal.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// Links returns the absolute http(s) links of the page in document order.
// Fragments are stripped, self links and duplicates dropped.
func (p *Parser) Links(html, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, hal.Errorf(hal.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	limit := p.MaxLinks
	if limit <= 0 {
		limit = hal.MaxLinks
	}
	seen := bloom.NewLinkFilter(limit)

	links := []string{}
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return true
		}

		resolved := resolveURL(base, href)
		if resolved == "" || seen.Seen(resolved) {
			return true
		}

		links = append(links, resolved)
		return len(links) < limit
	})

	return links, nil
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed, is not http(s), or
// points back at the base page. Fragments are stripped.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	baseNoFragment.RawFragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}

var (
	spaceRun = regexp.MustCompile(`[ \t\x{00a0}]+`)
	lineRun  = regexp.MustCompile(`\n\s*\n`)
)

// blockTags end a line of visible text.
const blockTags = "p, div, br, tr, li, h1, h2, h3, h4, h5, h6, section, article, header, footer, blockquote, pre, table, ul, ol, dt, dd"

// Text returns the visible text of the page, one block per line.
func (p *Parser) Text(html string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, template, head, svg").Remove()
	doc.Find(blockTags).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	doc.Find("td, th").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})

	return normalizeText(doc.Text()), nil
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = lineRun.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
