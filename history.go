package hal

import (
	"context"
	"time"
)

// HistoryKind distinguishes catalog rows.
type HistoryKind string

// History kinds.
const (
	HistoryPage   HistoryKind = "page"
	HistoryFiling HistoryKind = "filing"
)

// HistoryEntry records one write into the cache directory.
type HistoryEntry struct {
	ID   string
	Kind HistoryKind

	// Key is the cache key for pages and "<cik>/<accession>" for filings.
	Key        string
	URL        string
	Title      string
	Mode       Mode
	Method     Method
	Confidence float64

	// ContentHash fingerprints the extracted text, so repeated fetches of
	// an unchanged page can be spotted.
	ContentHash string

	// Path is the on-disk directory of the entry.
	Path       string
	RecordedAt time.Time
}

// Validate returns an error if the entry contains invalid fields.
func (e *HistoryEntry) Validate() error {
	switch e.Kind {
	case HistoryPage, HistoryFiling:
	default:
		return Errorf(EINVALID, "unknown history kind %q", e.Kind)
	}
	if e.Key == "" {
		return Errorf(EINVALID, "history key required")
	}
	if e.URL == "" {
		return Errorf(EINVALID, "history url required")
	}
	return nil
}

// HistoryFilter represents a filter for listing history entries.
type HistoryFilter struct {
	Kind *HistoryKind
	URL  *string

	Offset int
	Limit  int
}

// History is a rebuildable catalog of cache writes. The cache directory
// stays the source of truth; losing the catalog loses only the listing.
type History interface {
	// Record stores a new entry, assigning ID and RecordedAt.
	Record(ctx context.Context, entry *HistoryEntry) error

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, error)
}
