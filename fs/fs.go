// Package fs provides the on-disk stores: the page cache, the filing store
// and the markdown result writer.
package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// commitAttempts bounds how often a rename race with a concurrent writer is retried.
const commitAttempts = 5

// tempDir creates a fresh staging directory inside parent.
func tempDir(parent, name string) (string, error) {
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", err
	}
	dir := filepath.Join(parent, ".tmp-"+name+"-"+uuid.NewString())
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// replaceDir moves the staged directory tmp to final, replacing whatever is
// there. A prior entry is first renamed aside so final is never a partial
// directory; the loser of a race with another writer retries, which makes
// concurrent writers last-write-wins.
func replaceDir(tmp, final string) error {
	var err error
	for range commitAttempts {
		if err = os.Rename(tmp, final); err == nil {
			return nil
		}
		if _, statErr := os.Stat(final); statErr != nil {
			if errors.Is(statErr, os.ErrNotExist) {
				continue
			}
			return err
		}

		old := filepath.Join(filepath.Dir(final), ".old-"+filepath.Base(final)+"-"+uuid.NewString())
		if renameErr := os.Rename(final, old); renameErr != nil && !errors.Is(renameErr, os.ErrNotExist) {
			return renameErr
		}
		err = os.Rename(tmp, final)
		_ = os.RemoveAll(old)
		if err == nil {
			return nil
		}
	}
	return err
}

// writeFiles writes each named file into dir.
func writeFiles(dir string, files map[string][]byte) error {
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// safeName reports whether s can be used as a single path element.
func safeName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && !strings.HasPrefix(s, ".")
}
