package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "simple path",
			url:  "https://example.com/docs/api/users",
			want: "example.com/docs/api/users.md",
		},
		{
			name: "trailing slash becomes index",
			url:  "https://example.com/docs/",
			want: "example.com/docs/index.md",
		},
		{
			name: "root path becomes index",
			url:  "https://example.com/",
			want: "example.com/index.md",
		},
		{
			name: "ignores query string",
			url:  "https://example.com/docs/api?version=2",
			want: "example.com/docs/api.md",
		},
		{
			name: "port is kept in the host directory",
			url:  "http://example.com:8080/a",
			want: "example.com_8080/a.md",
		},
		{
			name:    "parent references are rejected",
			url:     "https://example.com/a/../../etc/passwd",
			wantErr: true,
		},
		{
			name:    "missing host",
			url:     "/relative",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestFormatResult(t *testing.T) {
	t.Parallel()

	r := &hal.Result{
		URL:            "https://example.com/docs/api",
		Title:          "API Reference",
		FetchedAt:      time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC),
		MethodUsed:     hal.MethodDOM,
		Confidence:     0.9,
		TextMarkdown:   "# API Reference\n\nThis is the API documentation.",
		TablesMarkdown: "| a |\n| --- |\n| 1 |",
	}

	got := fs.FormatResult(r)

	want := `---
source: https://example.com/docs/api
title: API Reference
fetched: 2025-01-08T12:00:00Z
method: dom
confidence: 0.90
---

# API Reference

This is the API documentation.

| a |
| --- |
| 1 |
`

	assert.Equal(t, want, got)
}

func TestWriter_WriteResult(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	w := fs.NewWriter(baseDir)

	path, err := w.WriteResult(&hal.Result{
		URL:          "https://example.com/deeply/nested/path/doc",
		Title:        "Nested Doc",
		TextMarkdown: "Content",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(baseDir, "example.com", "deeply", "nested", "path", "doc.md"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "title: Nested Doc")
	assert.Contains(t, string(content), "Content\n")
}
