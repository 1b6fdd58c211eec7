package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/hal"
)

// Compile-time interface verification.
var (
	_ hal.CacheStore  = (*CatalogingStore)(nil)
	_ hal.FilingStore = (*CatalogingFilingStore)(nil)
)

// CatalogPath returns the catalog database path inside cacheRoot.
func CatalogPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, CatalogFile)
}

// hashContent fingerprints extracted text.
func hashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// CatalogingStore records every successful Put of the wrapped CacheStore in
// the history catalog. Catalog failures are logged and never fail the Put.
type CatalogingStore struct {
	next    hal.CacheStore
	history hal.History
	dir     func(hal.CacheKey) string
	logger  *slog.Logger
}

// NewCatalogingStore creates a new CatalogingStore. dir maps a key to the
// directory the entry is stored in and may be nil.
func NewCatalogingStore(next hal.CacheStore, history hal.History, dir func(hal.CacheKey) string, logger *slog.Logger) *CatalogingStore {
	return &CatalogingStore{next: next, history: history, dir: dir, logger: logger}
}

// Get delegates to the wrapped store.
func (s *CatalogingStore) Get(ctx context.Context, key hal.CacheKey) (*hal.Artifact, error) {
	return s.next.Get(ctx, key)
}

// Put stores the artifact and records it.
func (s *CatalogingStore) Put(ctx context.Context, key hal.CacheKey, artifact *hal.Artifact) error {
	if err := s.next.Put(ctx, key, artifact); err != nil {
		return err
	}

	entry := &hal.HistoryEntry{
		Kind:        hal.HistoryPage,
		Key:         string(key),
		URL:         artifact.Result.URL,
		Title:       artifact.Result.Title,
		Mode:        artifact.Mode,
		Method:      artifact.Result.MethodUsed,
		Confidence:  artifact.Result.Confidence,
		ContentHash: hashContent(artifact.Result.TextMarkdown),
	}
	if s.dir != nil {
		entry.Path = s.dir(key)
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("catalog record failed", "key", key, "err", err)
	}
	return nil
}

// CatalogingFilingStore records every successful filing download in the
// history catalog. Catalog failures are logged and never fail the Put.
type CatalogingFilingStore struct {
	next    hal.FilingStore
	history hal.History
	logger  *slog.Logger
}

// NewCatalogingFilingStore creates a new CatalogingFilingStore.
func NewCatalogingFilingStore(next hal.FilingStore, history hal.History, logger *slog.Logger) *CatalogingFilingStore {
	return &CatalogingFilingStore{next: next, history: history, logger: logger}
}

// Get delegates to the wrapped store.
func (s *CatalogingFilingStore) Get(ctx context.Context, cik, accession string) (*hal.StoredFiling, error) {
	return s.next.Get(ctx, cik, accession)
}

// Read delegates to the wrapped store.
func (s *CatalogingFilingStore) Read(ctx context.Context, filing *hal.StoredFiling) ([]byte, error) {
	return s.next.Read(ctx, filing)
}

// Put stores the filing and records it.
func (s *CatalogingFilingStore) Put(ctx context.Context, filing *hal.StoredFiling, body []byte, exhibits map[string][]byte) error {
	if err := s.next.Put(ctx, filing, body, exhibits); err != nil {
		return err
	}

	rec := filing.Record
	entry := &hal.HistoryEntry{
		Kind:        hal.HistoryFiling,
		Key:         rec.CIK + "/" + rec.Accession,
		URL:         filing.SourceURL,
		Title:       rec.Form + " " + rec.FilingDate,
		ContentHash: hashContent(string(body)),
		Path:        filing.Dir,
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("catalog record failed", "cik", rec.CIK, "accession", rec.Accession, "err", err)
	}
	return nil
}
