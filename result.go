package hal

import "time"

// Method identifies the extraction strategy that produced a result.
type Method string

// Extraction methods.
const (
	MethodDOM    Method = "dom"
	MethodVision Method = "vision"
)

// CitationType identifies what a citation points at.
type CitationType string

// Citation types.
const (
	CitationURL        CitationType = "url"
	CitationScreenshot CitationType = "screenshot"
)

// Citation gives provenance for a result.
type Citation struct {
	Type  CitationType `json:"type"`
	Value string       `json:"value"`
}

// Result is the structured extraction of a single page.
type Result struct {
	URL            string     `json:"url"`
	FetchedAt      time.Time  `json:"fetched_at"`
	MethodUsed     Method     `json:"method_used"`
	Title          string     `json:"title"`
	TextMarkdown   string     `json:"text_markdown"`
	TablesMarkdown string     `json:"tables_markdown,omitempty"`
	Links          []string   `json:"links"`
	Screenshots    []string   `json:"screenshots"`
	Confidence     float64    `json:"confidence"`
	Warnings       []string   `json:"warnings"`
	Citations      []Citation `json:"citations"`
	CacheKey       CacheKey   `json:"cache_key"`
	Cached         bool       `json:"cached"`
}

// Candidate is an intermediate extraction produced while climbing the ladder.
type Candidate struct {
	Title      string
	Text       string
	Tables     string
	Links      []string
	Method     Method
	Confidence float64
}

// Citations returns the citations for a result fetched from url.
// Vision results additionally cite the screenshots they were read from.
func Citations(url string, method Method, screenshots []string) []Citation {
	citations := []Citation{{Type: CitationURL, Value: url}}
	if method == MethodVision {
		for _, path := range screenshots {
			citations = append(citations, Citation{Type: CitationScreenshot, Value: path})
		}
	}
	return citations
}
