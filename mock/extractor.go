package mock

import "github.com/fwojciec/hal"

var _ hal.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of hal.Extractor.
type Extractor struct {
	ExtractFn func(html, pageURL string) (*hal.ExtractResult, error)
}

func (e *Extractor) Extract(html, pageURL string) (*hal.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}

var _ hal.TableExtractor = (*TableExtractor)(nil)

// TableExtractor is a mock implementation of hal.TableExtractor.
type TableExtractor struct {
	TablesFn func(html string) (string, error)
}

func (e *TableExtractor) Tables(html string) (string, error) {
	return e.TablesFn(html)
}

var _ hal.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of hal.LinkExtractor.
type LinkExtractor struct {
	LinksFn func(html, baseURL string) ([]string, error)
}

func (e *LinkExtractor) Links(html, baseURL string) ([]string, error) {
	return e.LinksFn(html, baseURL)
}

var _ hal.TextExtractor = (*TextExtractor)(nil)

// TextExtractor is a mock implementation of hal.TextExtractor.
type TextExtractor struct {
	TextFn func(html string) (string, error)
}

func (e *TextExtractor) Text(html string) (string, error) {
	return e.TextFn(html)
}
