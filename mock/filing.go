package mock

import (
	"context"

	"github.com/fwojciec/hal"
)

var _ hal.FilingIndex = (*FilingIndex)(nil)

// FilingIndex is a mock implementation of hal.FilingIndex.
type FilingIndex struct {
	LookupCIKFn     func(ctx context.Context, ticker string) (string, error)
	RecentFilingsFn func(ctx context.Context, cik string) ([]hal.FilingRecord, error)
	ListDocumentsFn func(ctx context.Context, rec *hal.FilingRecord) ([]hal.FilingDocument, error)
}

func (i *FilingIndex) LookupCIK(ctx context.Context, ticker string) (string, error) {
	return i.LookupCIKFn(ctx, ticker)
}

func (i *FilingIndex) RecentFilings(ctx context.Context, cik string) ([]hal.FilingRecord, error) {
	return i.RecentFilingsFn(ctx, cik)
}

func (i *FilingIndex) ListDocuments(ctx context.Context, rec *hal.FilingRecord) ([]hal.FilingDocument, error) {
	return i.ListDocumentsFn(ctx, rec)
}

var _ hal.FilingStore = (*FilingStore)(nil)

// FilingStore is a mock implementation of hal.FilingStore.
type FilingStore struct {
	GetFn  func(ctx context.Context, cik, accession string) (*hal.StoredFiling, error)
	PutFn  func(ctx context.Context, filing *hal.StoredFiling, body []byte, exhibits map[string][]byte) error
	ReadFn func(ctx context.Context, filing *hal.StoredFiling) ([]byte, error)
}

func (s *FilingStore) Get(ctx context.Context, cik, accession string) (*hal.StoredFiling, error) {
	return s.GetFn(ctx, cik, accession)
}

func (s *FilingStore) Put(ctx context.Context, filing *hal.StoredFiling, body []byte, exhibits map[string][]byte) error {
	return s.PutFn(ctx, filing, body, exhibits)
}

func (s *FilingStore) Read(ctx context.Context, filing *hal.StoredFiling) ([]byte, error) {
	return s.ReadFn(ctx, filing)
}
