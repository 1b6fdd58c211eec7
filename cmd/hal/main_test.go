package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	main "github.com/fwojciec/hal/cmd/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("no arguments prints help and fails", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		m := &main.Main{}

		err := m.Run(context.Background(), nil, stdout, stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
		assert.Contains(t, stdout.String(), "browse")
		assert.Contains(t, stdout.String(), "filing")
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		m := &main.Main{}

		err := m.Run(context.Background(), []string{"--help"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "history")
		assert.Contains(t, stdout.String(), "serve")
	})

	t.Run("unknown command", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{}

		err := m.Run(context.Background(), []string{"crawl"}, &bytes.Buffer{}, &bytes.Buffer{})

		assert.Error(t, err)
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Parallel()

		m := &main.Main{}

		err := m.Run(context.Background(), []string{"browse", "--mode", "ocr", "https://example.com"}, &bytes.Buffer{}, &bytes.Buffer{})

		assert.Error(t, err)
	})

	t.Run("history on an empty cache", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "cache")
		stdout := &bytes.Buffer{}
		m := &main.Main{}

		err := m.Run(context.Background(), []string{"history", "--cache-dir", dir}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No history yet")
		assert.FileExists(t, filepath.Join(dir, "catalog.db"))
	})

	t.Run("filing requires a user agent", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		m := &main.Main{}

		err := m.Run(context.Background(), []string{"filing", "AAPL", "--cache-dir", dir, "--sec-user-agent", " "}, &bytes.Buffer{}, &bytes.Buffer{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HAL_SEC_USER_AGENT")
	})
}
