package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/fwojciec/hal"
)

// Ensure FilingStore implements hal.FilingStore at compile time.
var _ hal.FilingStore = (*FilingStore)(nil)

// FilingStore keeps downloaded filings under <root>/filings/<cik>/<accession>.
// Filings are immutable once issued, so a stored copy never expires.
type FilingStore struct {
	root string
}

// NewFilingStore creates a FilingStore rooted at root, normally the cache root.
func NewFilingStore(root string) *FilingStore {
	return &FilingStore{root: root}
}

// Dir returns the directory that holds a filing.
func (s *FilingStore) Dir(cik, accession string) string {
	return filepath.Join(s.root, "filings", cik, accession)
}

// Get returns the stored filing for (cik, accession).
func (s *FilingStore) Get(ctx context.Context, cik, accession string) (*hal.StoredFiling, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !safeName(cik) || !safeName(accession) {
		return nil, hal.Errorf(hal.EINVALID, "invalid filing key %s/%s", cik, accession)
	}
	dir := s.Dir(cik, accession)

	raw, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, hal.Errorf(hal.ENOTFOUND, "filing %s/%s not stored", cik, accession)
	} else if err != nil {
		return nil, hal.Wrapf(hal.ECACHEIO, err, "read filing metadata: %v", err)
	}

	var filing hal.StoredFiling
	if err := json.Unmarshal(raw, &filing); err != nil {
		return nil, hal.Wrapf(hal.ECACHEIO, err, "corrupt filing metadata for %s/%s: %v", cik, accession, err)
	}
	if !safeName(filing.Record.PrimaryDocument) {
		return nil, hal.Errorf(hal.ECACHEIO, "corrupt filing metadata for %s/%s: bad primary document", cik, accession)
	}

	filing.Dir = dir
	filing.Path = filepath.Join(dir, filing.Record.PrimaryDocument)
	if _, err := os.Stat(filing.Path); errors.Is(err, os.ErrNotExist) {
		return nil, hal.Errorf(hal.ENOTFOUND, "filing %s/%s not stored", cik, accession)
	}
	return &filing, nil
}

// Put writes the primary document, exhibits and metadata.json, replacing a
// prior copy. On success filing.Dir, filing.Path and filing.Exhibits describe
// the stored files.
func (s *FilingStore) Put(ctx context.Context, filing *hal.StoredFiling, body []byte, exhibits map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := filing.Record
	if err := rec.Validate(); err != nil {
		return err
	}
	if !safeName(rec.CIK) || !safeName(rec.Accession) {
		return hal.Errorf(hal.EINVALID, "invalid filing key %s/%s", rec.CIK, rec.Accession)
	}

	files := map[string][]byte{rec.PrimaryDocument: body}
	names := make([]string, 0, len(exhibits))
	for name, data := range exhibits {
		if !safeName(name) || name == metadataFile || name == rec.PrimaryDocument {
			continue
		}
		files[name] = data
		names = append(names, name)
	}
	sort.Strings(names)

	stored := *filing
	stored.Exhibits = names
	raw, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return hal.Wrapf(hal.ECACHEIO, err, "encode filing metadata: %v", err)
	}
	files[metadataFile] = raw

	parent := filepath.Join(s.root, "filings", rec.CIK)
	tmp, err := tempDir(parent, rec.Accession)
	if err != nil {
		return hal.Wrapf(hal.ECACHEIO, err, "create filing staging dir: %v", err)
	}
	dir := s.Dir(rec.CIK, rec.Accession)
	err = writeFiles(tmp, files)
	if err == nil {
		err = replaceDir(tmp, dir)
	}
	if err != nil {
		_ = os.RemoveAll(tmp)
		return hal.Wrapf(hal.ECACHEIO, err, "write filing %s/%s: %v", rec.CIK, rec.Accession, err)
	}

	filing.Exhibits = names
	filing.Dir = dir
	filing.Path = filepath.Join(dir, rec.PrimaryDocument)
	return nil
}

// Read returns the contents of the stored primary document.
func (s *FilingStore) Read(ctx context.Context, filing *hal.StoredFiling) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filing.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, hal.Errorf(hal.ENOTFOUND, "filing document %s not found", filing.Path)
	} else if err != nil {
		return nil, hal.Wrapf(hal.ECACHEIO, err, "read filing document: %v", err)
	}
	return data, nil
}
