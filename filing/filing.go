// Package filing resolves a company ticker to its latest periodic filing and
// downloads the filing into the local filing store.
package filing

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/hal"
	"golang.org/x/sync/errgroup"
)

// DefaultExhibitConcurrency is the number of exhibits downloaded at once.
const DefaultExhibitConcurrency = 4

// Resolver looks up, downloads and converts filings. Index, Store and
// Fetcher are required; Converter and Text produce the text rendition.
type Resolver struct {
	Index   hal.FilingIndex
	Store   hal.FilingStore
	Fetcher hal.Fetcher

	Converter hal.Converter
	Text      hal.TextExtractor

	Logger *slog.Logger

	// ExhibitConcurrency bounds concurrent exhibit downloads.
	ExhibitConcurrency int

	// Now is replaced in tests.
	Now func() time.Time
}

// DownloadOptions controls what Download fetches.
type DownloadOptions struct {
	IncludeExhibits bool

	// NoStore fetches the documents without writing them to the store.
	NoStore bool
}

// Downloaded is a filing fetched from the archive or read from the store.
type Downloaded struct {
	Filing hal.StoredFiling
	Body   []byte

	// Stored reports whether Filing.Path and Filing.Dir are on disk.
	Stored bool

	// Cached reports whether the filing was served from the store.
	Cached bool

	// ExhibitURLs lists exhibit documents that were found but not stored.
	ExhibitURLs []string

	Warnings []string
}

// Resolve maps a ticker to its CIK.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (string, error) {
	ticker = hal.NormalizeTicker(ticker)
	if ticker == "" {
		return "", hal.Errorf(hal.EINVALID, "ticker required")
	}
	return r.Index.LookupCIK(ctx, ticker)
}

// LatestFiling returns the company's most recent filing of one of forms.
// Nil forms selects hal.DefaultForms.
func (r *Resolver) LatestFiling(ctx context.Context, cik string, forms []string) (*hal.FilingRecord, error) {
	if len(forms) == 0 {
		forms = hal.DefaultForms
	}
	filings, err := r.Index.RecentFilings(ctx, cik)
	if err != nil {
		return nil, err
	}
	return hal.LatestFiling(filings, forms)
}

// Download returns the filing's primary document, and its exhibits when
// requested. A filing already in the store is returned without touching the
// network.
func (r *Resolver) Download(ctx context.Context, rec *hal.FilingRecord, opts DownloadOptions) (*Downloaded, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if !opts.NoStore {
		d, err := r.stored(ctx, rec, opts)
		if err != nil || d != nil {
			return d, err
		}
	}

	download, err := r.Fetcher.Fetch(ctx, rec.DocumentURL())
	if err != nil {
		return nil, err
	}
	d := &Downloaded{
		Filing: hal.StoredFiling{
			Record:       *rec,
			SourceURL:    rec.DocumentURL(),
			DownloadedAt: r.now().UTC().Truncate(time.Second),
		},
		Body:        download.Body,
		ExhibitURLs: []string{},
		Warnings:    []string{},
	}

	var exhibits map[string][]byte
	if opts.IncludeExhibits {
		docs, err := r.Index.ListDocuments(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d.Warnings = append(d.Warnings, "exhibit listing failed: "+err.Error())
		} else if opts.NoStore {
			for _, doc := range exhibitDocuments(rec, docs) {
				d.ExhibitURLs = append(d.ExhibitURLs, rec.ExhibitURL(doc.Name))
			}
		} else {
			exhibits, err = r.fetchExhibits(ctx, rec, exhibitDocuments(rec, docs), d)
			if err != nil {
				return nil, err
			}
			d.Filing.ExhibitsListed = true
		}
	}

	if opts.NoStore {
		return d, nil
	}
	if err := r.Store.Put(ctx, &d.Filing, d.Body, exhibits); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.Warnings = append(d.Warnings, "cache write failed: "+err.Error())
		return d, nil
	}
	d.Stored = true
	return d, nil
}

// stored returns the filing from the store, or nil when it must be fetched.
// A filing stored without an exhibit listing is refetched when exhibits are
// wanted.
func (r *Resolver) stored(ctx context.Context, rec *hal.FilingRecord, opts DownloadOptions) (*Downloaded, error) {
	filing, err := r.Store.Get(ctx, rec.CIK, rec.Accession)
	if hal.ErrorCode(err) == hal.ENOTFOUND {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if opts.IncludeExhibits && !filing.ExhibitsListed {
		return nil, nil
	}

	body, err := r.Store.Read(ctx, filing)
	if hal.ErrorCode(err) == hal.ENOTFOUND {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &Downloaded{
		Filing:      *filing,
		Body:        body,
		Stored:      true,
		Cached:      true,
		ExhibitURLs: []string{},
		Warnings:    []string{},
	}, nil
}

// fetchExhibits downloads docs concurrently. A failed exhibit is reported
// as a warning on d and left out.
func (r *Resolver) fetchExhibits(ctx context.Context, rec *hal.FilingRecord, docs []hal.FilingDocument, d *Downloaded) (map[string][]byte, error) {
	limit := r.ExhibitConcurrency
	if limit <= 0 {
		limit = DefaultExhibitConcurrency
	}

	var mu sync.Mutex
	exhibits := make(map[string][]byte, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, doc := range docs {
		g.Go(func() error {
			download, err := r.Fetcher.Fetch(gctx, rec.ExhibitURL(doc.Name))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.Warnings = append(d.Warnings, "exhibit "+doc.Name+" download failed: "+err.Error())
				return nil
			}
			exhibits[doc.Name] = download.Body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return exhibits, nil
}

// exhibitDocuments returns the exhibits of a filing other than its primary
// document.
func exhibitDocuments(rec *hal.FilingRecord, docs []hal.FilingDocument) []hal.FilingDocument {
	var out []hal.FilingDocument
	for _, doc := range docs {
		if doc.IsExhibit() && doc.Name != rec.PrimaryDocument {
			out = append(out, doc)
		}
	}
	return out
}

// Lookup resolves req.Ticker to its latest filing and returns the filing
// with a text rendition.
func (r *Resolver) Lookup(ctx context.Context, req *hal.FilingRequest) (*hal.FilingResult, error) {
	if req == nil {
		return nil, hal.Errorf(hal.EINVALID, "request required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	begin := time.Now()
	ticker := hal.NormalizeTicker(req.Ticker)

	result, err := r.lookup(ctx, ticker, req)
	if err != nil {
		r.logger().Info("filing lookup", "ticker", ticker, "duration", time.Since(begin), "err", err)
		return nil, err
	}
	r.logger().Info("filing lookup",
		"ticker", ticker,
		"form", result.Form,
		"accession", result.Accession,
		"stored", result.DownloadPath != "",
		"warnings", len(result.Warnings),
		"duration", time.Since(begin),
	)
	return result, nil
}

func (r *Resolver) lookup(ctx context.Context, ticker string, req *hal.FilingRequest) (*hal.FilingResult, error) {
	cik, err := r.Resolve(ctx, ticker)
	if err != nil {
		return nil, err
	}
	rec, err := r.LatestFiling(ctx, cik, req.Forms)
	if err != nil {
		return nil, err
	}
	d, err := r.Download(ctx, rec, DownloadOptions{
		IncludeExhibits: req.IncludeExhibits,
		NoStore:         !req.Download,
	})
	if err != nil {
		return nil, err
	}

	result := &hal.FilingResult{
		Ticker:          ticker,
		CIK:             rec.CIK,
		Form:            rec.Form,
		FilingDate:      rec.FilingDate,
		Accession:       rec.Accession,
		PrimaryDocument: rec.PrimaryDocument,
		SourceURL:       rec.DocumentURL(),
		Exhibits:        d.ExhibitURLs,
		TextMarkdown:    r.text(string(d.Body)),
		Warnings:        d.Warnings,
		Citations:       []hal.Citation{{Type: hal.CitationURL, Value: rec.DocumentURL()}},
	}
	if d.Stored {
		result.DownloadPath = d.Filing.Path
		if req.Format != hal.FormatText {
			result.HTMLPath = d.Filing.Path
		}
		for _, name := range d.Filing.Exhibits {
			result.Exhibits = append(result.Exhibits, filepath.Join(d.Filing.Dir, name))
		}
	}
	if result.TextMarkdown == "" && len(d.Body) > 0 {
		result.Warnings = append(result.Warnings, "filing text extraction returned no content")
	}
	return result, nil
}

// text converts filing HTML to Markdown, falling back to the visible text
// when conversion fails.
func (r *Resolver) text(html string) string {
	if r.Converter != nil {
		md, err := r.Converter.Convert(html)
		if err == nil && strings.TrimSpace(md) != "" {
			return strings.TrimSpace(md)
		}
	}
	if r.Text != nil {
		text, err := r.Text.Text(html)
		if err == nil {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
