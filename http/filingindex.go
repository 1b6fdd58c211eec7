package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/hal"
)

// SEC endpoints.
const (
	DefaultTickersURL        = "https://www.sec.gov/files/company_tickers.json"
	DefaultSubmissionsURL    = "https://data.sec.gov/submissions"
	DefaultSECRequestsPerSec = 10

	// DefaultTickersTTL is how long the ticker table is reused before it is
	// downloaded again.
	DefaultTickersTTL = 24 * time.Hour
)

// NewSECFetcher returns a Fetcher configured for SEC fair-access rules: a
// declared User-Agent and at most ten requests per second.
// Returns EINVALID when userAgent is blank.
func NewSECFetcher(validator hal.TargetValidator, userAgent string, opts ...Option) (*Fetcher, error) {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, hal.Errorf(hal.EINVALID, "HAL_SEC_USER_AGENT must be set (example: 'HAL/0.1 (you@example.com)')")
	}
	opts = append([]Option{
		WithUserAgent(userAgent),
		WithRateLimit(DefaultSECRequestsPerSec),
	}, opts...)
	return NewFetcher(validator, opts...), nil
}

// Ensure FilingIndex implements hal.FilingIndex at compile time.
var _ hal.FilingIndex = (*FilingIndex)(nil)

// FilingIndex looks up companies and filings through SEC EDGAR.
// The ticker table is downloaded once and reused for TickersTTL.
type FilingIndex struct {
	Fetcher hal.Fetcher

	TickersURL      string
	SubmissionsURL  string
	ArchivesBaseURL string
	TickersTTL      time.Duration

	// Now is replaced in tests.
	Now func() time.Time

	mu       sync.Mutex
	tickers  map[string]string
	loadedAt time.Time
}

// NewFilingIndex creates a FilingIndex using the public EDGAR endpoints.
func NewFilingIndex(fetcher hal.Fetcher) *FilingIndex {
	return &FilingIndex{
		Fetcher:         fetcher,
		TickersURL:      DefaultTickersURL,
		SubmissionsURL:  DefaultSubmissionsURL,
		ArchivesBaseURL: hal.ArchivesBaseURL,
		TickersTTL:      DefaultTickersTTL,
	}
}

// LookupCIK maps ticker to a ten-digit CIK.
func (idx *FilingIndex) LookupCIK(ctx context.Context, ticker string) (string, error) {
	ticker = hal.NormalizeTicker(ticker)
	if ticker == "" {
		return "", hal.Errorf(hal.EINVALID, "ticker required")
	}

	tickers, err := idx.loadTickers(ctx)
	if err != nil {
		return "", err
	}
	cik, ok := tickers[ticker]
	if !ok {
		return "", hal.Errorf(hal.EUNKNOWNTICKER, "ticker %q was not found in the SEC ticker mapping", ticker)
	}
	return cik, nil
}

func (idx *FilingIndex) loadTickers(ctx context.Context) (map[string]string, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := idx.now()
	if idx.tickers != nil && (idx.TickersTTL <= 0 || now.Sub(idx.loadedAt) < idx.TickersTTL) {
		return idx.tickers, nil
	}

	tickers, err := idx.fetchTickers(ctx)
	if err != nil {
		// A stale table beats no table.
		if idx.tickers != nil && ctx.Err() == nil {
			return idx.tickers, nil
		}
		return nil, err
	}
	idx.tickers = tickers
	idx.loadedAt = now
	return tickers, nil
}

// fetchTickers downloads the ticker table. Failures are internal errors: a
// missing table says nothing about whether a ticker exists.
func (idx *FilingIndex) fetchTickers(ctx context.Context) (map[string]string, error) {
	dl, err := idx.Fetcher.Fetch(ctx, idx.TickersURL)
	if err != nil {
		return nil, hal.Wrapf(hal.EINTERNAL, err, "fetch ticker table: %v", err)
	}

	var payload map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(dl.Body, &payload); err != nil {
		return nil, hal.Wrapf(hal.EINTERNAL, err, "decode ticker table: %v", err)
	}

	tickers := make(map[string]string, len(payload))
	for _, company := range payload {
		t := hal.NormalizeTicker(company.Ticker)
		if t == "" {
			continue
		}
		tickers[t] = hal.PadCIK(strconv.FormatInt(company.CIK, 10))
	}
	return tickers, nil
}

func (idx *FilingIndex) now() time.Time {
	if idx.Now != nil {
		return idx.Now()
	}
	return time.Now()
}

type submissions struct {
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// RecentFilings returns the filings listed in the company's submissions feed.
func (idx *FilingIndex) RecentFilings(ctx context.Context, cik string) ([]hal.FilingRecord, error) {
	cik = hal.PadCIK(cik)
	dl, err := idx.Fetcher.Fetch(ctx, fmt.Sprintf("%s/CIK%s.json", strings.TrimSuffix(idx.SubmissionsURL, "/"), cik))
	if err != nil {
		return nil, fmt.Errorf("fetch submissions for %s: %w", cik, err)
	}

	var payload submissions
	if err := json.Unmarshal(dl.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode submissions for %s: %w", cik, err)
	}

	recent := payload.Filings.Recent
	n := min(len(recent.Form), len(recent.FilingDate), len(recent.AccessionNumber), len(recent.PrimaryDocument))
	records := make([]hal.FilingRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, hal.FilingRecord{
			CIK:             cik,
			Form:            recent.Form[i],
			FilingDate:      recent.FilingDate[i],
			Accession:       recent.AccessionNumber[i],
			PrimaryDocument: recent.PrimaryDocument[i],
		})
	}
	return records, nil
}

// exhibitName matches EDGAR exhibit file names such as "ex21.htm",
// "d123dex311.htm", "exhibit_99-1.htm" or "a10-kexhibit2112282024.htm".
var exhibitName = regexp.MustCompile(`(?i)(?:exhibit|(?:^|[^a-z])d?ex)[-_]?(\d{1,3})`)

// ListDocuments parses the filing's index.xml directory listing.
// Exhibits are recognized by file name and typed "EX-<number>".
func (idx *FilingIndex) ListDocuments(ctx context.Context, rec *hal.FilingRecord) ([]hal.FilingDocument, error) {
	indexURL := strings.Replace(rec.IndexURL(), hal.ArchivesBaseURL, strings.TrimSuffix(idx.ArchivesBaseURL, "/"), 1)
	dl, err := idx.Fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch filing index: %w", err)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(bytes.NewReader(dl.Body)); err != nil {
		return nil, fmt.Errorf("parsing filing index XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty filing index XML")
	}

	var docs []hal.FilingDocument
	for _, item := range root.SelectElements("item") {
		name := childText(item, "name")
		if name == "" || strings.Contains(strings.ToLower(name), "index") {
			continue
		}
		d := hal.FilingDocument{
			Name:        name,
			Type:        childText(item, "type"),
			Description: childText(item, "description"),
		}
		if name == rec.PrimaryDocument {
			d.Type = rec.Form
		} else if m := exhibitName.FindStringSubmatch(name); m != nil && isDocumentFile(name) {
			d.Type = "EX-" + m[1]
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func isDocumentFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".htm", ".html", ".txt", ".pdf"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
