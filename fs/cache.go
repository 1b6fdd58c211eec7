package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/hal"
)

// Files inside a cache entry.
const (
	pageFile     = "page.html"
	textFile     = "text.md"
	metadataFile = "metadata.json"
)

// Ensure CacheStore implements hal.CacheStore at compile time.
var _ hal.CacheStore = (*CacheStore)(nil)

// CacheStore keeps one directory per cache key under <root>/pages.
// Entries are staged in a temporary directory and renamed into place, and
// Get reads every file of an entry through one directory handle, so readers
// see either the previous entry or the new one, never a mix.
type CacheStore struct {
	root string
}

// NewCacheStore creates a CacheStore rooted at root.
func NewCacheStore(root string) *CacheStore {
	return &CacheStore{root: root}
}

// Root returns the cache root directory.
func (s *CacheStore) Root() string {
	return s.root
}

func (s *CacheStore) pagesDir() string {
	return filepath.Join(s.root, "pages")
}

// Dir returns the directory that holds the entry for key.
func (s *CacheStore) Dir(key hal.CacheKey) string {
	return filepath.Join(s.pagesDir(), string(key))
}

// entryMetadata is the layout of metadata.json. The text lives in text.md.
type entryMetadata struct {
	Key         hal.CacheKey `json:"cache_key"`
	Mode        hal.Mode     `json:"mode"`
	URL         string       `json:"url"`
	FinalURL    string       `json:"final_url"`
	FetchedAt   time.Time    `json:"fetched_at"`
	MethodUsed  hal.Method   `json:"method_used"`
	Title       string       `json:"title"`
	Tables      string       `json:"tables_markdown,omitempty"`
	Links       []string     `json:"links"`
	Screenshots []string     `json:"screenshots"`
	Confidence  float64      `json:"confidence"`
	Warnings    []string     `json:"warnings"`
}

// Get loads the entry stored under key.
func (s *CacheStore) Get(ctx context.Context, key hal.CacheKey) (*hal.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !safeName(string(key)) {
		return nil, hal.Errorf(hal.EINVALID, "invalid cache key %q", key)
	}
	dir := s.Dir(key)

	// All reads go through one handle on the entry directory. A concurrent
	// Put renames a new directory into place but never touches this one, so
	// the files read here belong to a single entry. A file that vanishes
	// because the entry was replaced and removed is a miss.
	entry, err := os.OpenRoot(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, hal.Errorf(hal.ENOTFOUND, "cache entry %s not found", key)
	} else if err != nil {
		return nil, hal.Wrapf(hal.ECACHEIO, err, "open cache entry: %v", err)
	}
	defer entry.Close()

	raw, err := readEntryFile(entry, key, metadataFile)
	if err != nil {
		return nil, err
	}
	var meta entryMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, hal.Wrapf(hal.ECACHEIO, err, "corrupt cache metadata for %s: %v", key, err)
	}

	text, err := readEntryFile(entry, key, textFile)
	if err != nil {
		return nil, err
	}
	html, err := readEntryFile(entry, key, pageFile)
	if err != nil {
		return nil, err
	}

	screenshots := make([]string, 0, len(meta.Screenshots))
	for _, name := range meta.Screenshots {
		screenshots = append(screenshots, filepath.Join(dir, name))
	}

	return &hal.Artifact{
		Key:      key,
		Mode:     meta.Mode,
		FinalURL: meta.FinalURL,
		HTML:     string(html),
		Result: hal.Result{
			URL:            meta.URL,
			FetchedAt:      meta.FetchedAt,
			MethodUsed:     meta.MethodUsed,
			Title:          meta.Title,
			TextMarkdown:   string(text),
			TablesMarkdown: meta.Tables,
			Links:          meta.Links,
			Screenshots:    screenshots,
			Confidence:     meta.Confidence,
			Warnings:       meta.Warnings,
			Citations:      hal.Citations(meta.URL, meta.MethodUsed, screenshots),
			CacheKey:       key,
		},
	}, nil
}

// readEntryFile reads name from an open cache entry.
func readEntryFile(entry *os.Root, key hal.CacheKey, name string) ([]byte, error) {
	data, err := entry.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, hal.Errorf(hal.ENOTFOUND, "cache entry %s not found", key)
	} else if err != nil {
		return nil, hal.Wrapf(hal.ECACHEIO, err, "read cached %s: %v", name, err)
	}
	return data, nil
}

// Put writes artifact under key, replacing any previous entry.
func (s *CacheStore) Put(ctx context.Context, key hal.CacheKey, artifact *hal.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !safeName(string(key)) {
		return hal.Errorf(hal.EINVALID, "invalid cache key %q", key)
	}

	tmp, err := tempDir(s.pagesDir(), string(key))
	if err != nil {
		return hal.Wrapf(hal.ECACHEIO, err, "create cache staging dir: %v", err)
	}

	paths, err := s.stage(tmp, key, artifact)
	if err == nil {
		err = replaceDir(tmp, s.Dir(key))
	}
	if err != nil {
		_ = os.RemoveAll(tmp)
		return hal.Wrapf(hal.ECACHEIO, err, "write cache entry %s: %v", key, err)
	}

	artifact.Key = key
	artifact.Result.CacheKey = key
	artifact.Result.Screenshots = paths
	return nil
}

// stage writes the entry into tmp and returns the final screenshot paths.
func (s *CacheStore) stage(tmp string, key hal.CacheKey, artifact *hal.Artifact) ([]string, error) {
	r := &artifact.Result

	files := map[string][]byte{
		pageFile: []byte(artifact.HTML),
		textFile: []byte(r.TextMarkdown),
	}

	names := make([]string, 0, len(artifact.Screenshots))
	paths := make([]string, 0, len(artifact.Screenshots))
	for i, shot := range artifact.Screenshots {
		name := "screenshot-" + shot.Name + ".png"
		if !safeName(shot.Name) {
			name = fmt.Sprintf("screenshot-%d.png", i)
		}
		files[name] = shot.Data
		names = append(names, name)
		paths = append(paths, filepath.Join(s.Dir(key), name))
	}

	meta := entryMetadata{
		Key:         key,
		Mode:        artifact.Mode,
		URL:         r.URL,
		FinalURL:    artifact.FinalURL,
		FetchedAt:   r.FetchedAt.UTC(),
		MethodUsed:  r.MethodUsed,
		Title:       r.Title,
		Tables:      r.TablesMarkdown,
		Links:       r.Links,
		Screenshots: names,
		Confidence:  r.Confidence,
		Warnings:    r.Warnings,
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	files[metadataFile] = raw

	if err := writeFiles(tmp, files); err != nil {
		return nil, err
	}
	return paths, nil
}
