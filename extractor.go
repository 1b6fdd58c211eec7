package hal

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	// pageURL resolves relative references and may be empty.
	Extract(html, pageURL string) (*ExtractResult, error)
}

// TableExtractor renders the tables of an HTML page as Markdown.
type TableExtractor interface {
	// Tables returns every table in html as a Markdown table, separated by
	// blank lines. Returns "" when the page has no tables.
	Tables(html string) (string, error)
}

// LinkExtractor collects the outbound links of an HTML page.
type LinkExtractor interface {
	// Links returns absolute http(s) links in document order without
	// duplicates, capped at MaxLinks.
	Links(html, baseURL string) ([]string, error)
}

// TextExtractor returns the visible text of an HTML page.
type TextExtractor interface {
	Text(html string) (string, error)
}
