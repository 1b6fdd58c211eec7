package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/hal"
)

// Ensure LoggingFilingIndex implements hal.FilingIndex.
var _ hal.FilingIndex = (*LoggingFilingIndex)(nil)

// LoggingFilingIndex wraps a FilingIndex with logging.
type LoggingFilingIndex struct {
	next   hal.FilingIndex
	logger *slog.Logger
}

// NewLoggingFilingIndex creates a new LoggingFilingIndex.
func NewLoggingFilingIndex(next hal.FilingIndex, logger *slog.Logger) *LoggingFilingIndex {
	return &LoggingFilingIndex{next: next, logger: logger}
}

// LookupCIK delegates to the wrapped index and logs the lookup.
func (i *LoggingFilingIndex) LookupCIK(ctx context.Context, ticker string) (cik string, err error) {
	defer func(begin time.Time) {
		i.logger.Info("cik lookup",
			"ticker", ticker,
			"cik", cik,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.LookupCIK(ctx, ticker)
}

// RecentFilings delegates to the wrapped index and logs the listing.
func (i *LoggingFilingIndex) RecentFilings(ctx context.Context, cik string) (filings []hal.FilingRecord, err error) {
	defer func(begin time.Time) {
		i.logger.Info("recent filings",
			"cik", cik,
			"count", len(filings),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.RecentFilings(ctx, cik)
}

// ListDocuments delegates to the wrapped index and logs the listing.
func (i *LoggingFilingIndex) ListDocuments(ctx context.Context, rec *hal.FilingRecord) (docs []hal.FilingDocument, err error) {
	defer func(begin time.Time) {
		i.logger.Info("filing documents",
			"cik", rec.CIK,
			"accession", rec.Accession,
			"count", len(docs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return i.next.ListDocuments(ctx, rec)
}
