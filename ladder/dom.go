package ladder

import (
	"regexp"
	"strings"

	"github.com/fwojciec/hal"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
)

// cleanText collapses runs of blank lines and horizontal whitespace.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// extractDOM climbs the structural rungs: readability, then trafilatura,
// then the page's visible text. Each fallback is reported as a warning.
// Collaborator errors degrade to empty text.
func (l *Ladder) extractDOM(r *run) *hal.Candidate {
	page := r.rendering
	base := page.FinalURL
	if base == "" {
		base = r.url
	}

	title, text := l.rung(l.Readability, page.HTML, base)
	if len(text) < MinRungChars && l.Trafilatura != nil {
		r.warn("readability returned short content, used trafilatura fallback")
		var fallbackTitle string
		fallbackTitle, text = l.rung(l.Trafilatura, page.HTML, base)
		if title == "" {
			title = fallbackTitle
		}
	}
	if len(text) < MinRungChars {
		r.warn("structural extraction returned short content, used body text fallback")
		text = l.visibleText(page)
	}
	if title == "" {
		title = page.Title
	}

	return &hal.Candidate{
		Title:  title,
		Text:   text,
		Tables: l.tables(page.HTML),
		Links:  l.links(page, base),
		Method: hal.MethodDOM,
	}
}

// rung runs one extractor and converts its content to Markdown.
func (l *Ladder) rung(ex hal.Extractor, html, pageURL string) (title, text string) {
	if ex == nil {
		return "", ""
	}
	res, err := ex.Extract(html, pageURL)
	if err != nil || res == nil {
		return "", ""
	}
	md, err := l.Converter.Convert(res.ContentHTML)
	if err != nil {
		return res.Title, ""
	}
	return res.Title, strings.TrimSpace(md)
}

func (l *Ladder) visibleText(page *hal.Rendering) string {
	if text := cleanText(page.Text); text != "" || l.Text == nil {
		return text
	}
	text, err := l.Text.Text(page.HTML)
	if err != nil {
		return ""
	}
	return cleanText(text)
}

func (l *Ladder) tables(html string) string {
	if l.Tables == nil {
		return ""
	}
	md, err := l.Tables.Tables(html)
	if err != nil {
		return ""
	}
	return md
}

// links prefers the renderer's links, which include script-inserted anchors.
func (l *Ladder) links(page *hal.Rendering, base string) []string {
	if len(page.Links) > 0 {
		if len(page.Links) > hal.MaxLinks {
			return page.Links[:hal.MaxLinks]
		}
		return page.Links
	}
	if l.Links == nil {
		return []string{}
	}
	links, err := l.Links.Links(page.HTML, base)
	if err != nil {
		return []string{}
	}
	return links
}
