package hal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ArchivesBaseURL is the root of the EDGAR document archive.
const ArchivesBaseURL = "https://www.sec.gov/Archives/edgar/data"

// DefaultForms are the form types a filing lookup considers by default.
var DefaultForms = []string{"10-K", "10-Q"}

// FilingRecord describes one filing in a company's filing history.
// (CIK, Accession) uniquely identifies a filing.
type FilingRecord struct {
	CIK             string `json:"cik"`
	Form            string `json:"form_type"`
	FilingDate      string `json:"filing_date"`
	Accession       string `json:"accession"`
	PrimaryDocument string `json:"primary_document"`
}

// Validate returns an error if the record cannot be located in the archive.
func (r *FilingRecord) Validate() error {
	if r.CIK == "" {
		return Errorf(EINVALID, "filing cik required")
	}
	if _, err := strconv.ParseUint(r.CIK, 10, 64); err != nil {
		return Errorf(EINVALID, "filing cik must be numeric: %q", r.CIK)
	}
	if r.Accession == "" {
		return Errorf(EINVALID, "filing accession required")
	}
	if r.PrimaryDocument == "" || strings.ContainsAny(r.PrimaryDocument, `/\`) || r.PrimaryDocument == ".." {
		return Errorf(EINVALID, "invalid primary document %q", r.PrimaryDocument)
	}
	return nil
}

// archivePath returns "<cik-without-zeros>/<accession-without-dashes>".
func (r *FilingRecord) archivePath() string {
	cik := strings.TrimLeft(r.CIK, "0")
	if cik == "" {
		cik = "0"
	}
	return cik + "/" + strings.ReplaceAll(r.Accession, "-", "")
}

// DocumentURL returns the archive URL of the primary document.
func (r *FilingRecord) DocumentURL() string {
	return ArchivesBaseURL + "/" + r.archivePath() + "/" + r.PrimaryDocument
}

// ExhibitURL returns the archive URL of another document in the filing.
func (r *FilingRecord) ExhibitURL(name string) string {
	return ArchivesBaseURL + "/" + r.archivePath() + "/" + name
}

// IndexURL returns the archive URL of the filing's directory listing.
func (r *FilingRecord) IndexURL() string {
	return ArchivesBaseURL + "/" + r.archivePath() + "/index.xml"
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// PadCIK returns cik zero-padded to the ten digits EDGAR uses in file names.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// LatestFiling selects the most recent filing whose form is one of forms.
// Filing dates are compared as calendar dates; ties go to the
// lexicographically greatest accession number, since accession numbers are
// issued in order. Returns ENOFILING when no filing matches.
func LatestFiling(filings []FilingRecord, forms []string) (*FilingRecord, error) {
	allowed := make(map[string]bool, len(forms))
	for _, f := range forms {
		allowed[strings.ToUpper(strings.TrimSpace(f))] = true
	}

	var best *FilingRecord
	var bestDate time.Time
	for i := range filings {
		f := &filings[i]
		if !allowed[strings.ToUpper(f.Form)] {
			continue
		}
		date, err := time.Parse(time.DateOnly, f.FilingDate)
		if err != nil {
			continue
		}
		if best == nil || date.After(bestDate) || (date.Equal(bestDate) && f.Accession > best.Accession) {
			best, bestDate = f, date
		}
	}
	if best == nil {
		return nil, Errorf(ENOFILING, "no %s filing found", strings.Join(forms, "/"))
	}
	out := *best
	return &out, nil
}

// FilingDocument is one entry of a filing's directory listing.
type FilingDocument struct {
	Name        string
	Type        string
	Description string
}

// IsExhibit reports whether the document is an exhibit.
func (d FilingDocument) IsExhibit() bool {
	return strings.HasPrefix(strings.ToUpper(d.Type), "EX-")
}

// FilingIndex looks up companies and their filings.
type FilingIndex interface {
	// LookupCIK maps a normalized ticker to a ten-digit CIK.
	// Returns EUNKNOWNTICKER when the ticker is not listed.
	LookupCIK(ctx context.Context, ticker string) (string, error)

	// RecentFilings returns the company's recent filings, newest first.
	RecentFilings(ctx context.Context, cik string) ([]FilingRecord, error)

	// ListDocuments returns the documents that make up a filing.
	ListDocuments(ctx context.Context, rec *FilingRecord) ([]FilingDocument, error)
}

// StoredFiling is a filing document persisted on disk.
type StoredFiling struct {
	Record       FilingRecord `json:"record"`
	SourceURL    string       `json:"sec_url"`
	DownloadedAt time.Time    `json:"downloaded_at"`
	Dir          string       `json:"-"`
	Path         string       `json:"-"`
	Exhibits     []string     `json:"exhibits,omitempty"`

	// ExhibitsListed reports whether the filing's exhibits were listed when
	// it was stored. Exhibits may still be empty: the filing had none, or
	// their downloads failed.
	ExhibitsListed bool `json:"exhibits_listed,omitempty"`
}

// FilingStore persists filing documents keyed by (CIK, accession).
type FilingStore interface {
	// Get returns the stored filing. Returns ENOTFOUND when it is not on disk.
	Get(ctx context.Context, cik, accession string) (*StoredFiling, error)

	// Put writes the primary document and any exhibits, replacing a prior
	// entry for the same filing. Returns ECACHEIO on write failure.
	Put(ctx context.Context, filing *StoredFiling, body []byte, exhibits map[string][]byte) error

	// Read returns the contents of the stored primary document.
	Read(ctx context.Context, filing *StoredFiling) ([]byte, error)
}

// Output formats for filing lookups.
const (
	FormatHTML = "html"
	FormatText = "text"
)

// FilingRequest asks for the latest filing of a company.
type FilingRequest struct {
	Ticker          string   `json:"ticker"`
	Forms           []string `json:"forms,omitempty"`
	IncludeExhibits bool     `json:"include_exhibits"`
	Format          string   `json:"format,omitempty"`
	Download        bool     `json:"download"`
}

// NewFilingRequest returns a request for ticker with default options.
func NewFilingRequest(ticker string) *FilingRequest {
	return &FilingRequest{
		Ticker:   ticker,
		Forms:    DefaultForms,
		Format:   FormatHTML,
		Download: true,
	}
}

// Validate returns an error if the request contains invalid fields.
func (r *FilingRequest) Validate() error {
	if NormalizeTicker(r.Ticker) == "" {
		return Errorf(EINVALID, "ticker required")
	}
	switch r.Format {
	case "", FormatHTML, FormatText:
	default:
		return Errorf(EINVALID, "unknown format %q", r.Format)
	}
	return nil
}

// FilingResult is the response to a filing lookup.
type FilingResult struct {
	Ticker          string     `json:"ticker"`
	CIK             string     `json:"cik"`
	Form            string     `json:"form_type"`
	FilingDate      string     `json:"filing_date"`
	Accession       string     `json:"accession"`
	PrimaryDocument string     `json:"primary_document"`
	SourceURL       string     `json:"sec_url"`
	DownloadPath    string     `json:"download_path,omitempty"`
	HTMLPath        string     `json:"html_path,omitempty"`
	Exhibits        []string   `json:"exhibits,omitempty"`
	TextMarkdown    string     `json:"text_markdown"`
	Warnings        []string   `json:"warnings"`
	Citations       []Citation `json:"citations"`
}

// String returns a one-line summary of the filing.
func (r *FilingResult) String() string {
	return fmt.Sprintf("%s %s filed %s (accession %s)", r.Ticker, r.Form, r.FilingDate, r.Accession)
}
