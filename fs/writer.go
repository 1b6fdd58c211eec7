package fs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/hal"
)

// URLToPath converts a page URL to a relative markdown file path under a
// directory named after the host.
// Example: https://example.com/docs/api/users → example.com/docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ReplaceAll(u.Host, ":", "_")
	if host == "" {
		return "", hal.Errorf(hal.EINVALID, "url has no host: %q", rawURL)
	}

	path := u.Path

	// Handle root or trailing slash → index.md
	if path == "" || path == "/" {
		return filepath.Join(host, "index.md"), nil
	}

	path = strings.TrimPrefix(path, "/")
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return "", hal.Errorf(hal.EINVALID, "url path escapes output directory: %q", rawURL)
		}
	}

	// Trailing slash becomes index.md in that directory
	if strings.HasSuffix(path, "/") {
		return filepath.Join(host, path+"index.md"), nil
	}

	// Otherwise append .md
	return filepath.Join(host, path+".md"), nil
}

// FormatResult formats an extraction result with YAML frontmatter.
func FormatResult(r *hal.Result) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(r.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(r.Title)
	b.WriteString("\nfetched: ")
	b.WriteString(r.FetchedAt.UTC().Format(time.RFC3339))
	b.WriteString("\nmethod: ")
	b.WriteString(string(r.MethodUsed))
	fmt.Fprintf(&b, "\nconfidence: %.2f", r.Confidence)
	b.WriteString("\n---\n\n")
	b.WriteString(r.TextMarkdown)
	if r.TablesMarkdown != "" {
		b.WriteString("\n\n")
		b.WriteString(r.TablesMarkdown)
	}
	b.WriteString("\n")
	return b.String()
}

// Writer writes results as markdown files to a directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteResult writes r to disk and returns the file path.
func (w *Writer) WriteResult(r *hal.Result) (string, error) {
	relPath, err := URLToPath(r.URL)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(w.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	return fullPath, os.WriteFile(fullPath, []byte(FormatResult(r)), 0644)
}
