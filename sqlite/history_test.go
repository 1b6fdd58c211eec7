package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageEntry(n int) *hal.HistoryEntry {
	return &hal.HistoryEntry{
		Kind:       hal.HistoryPage,
		Key:        fmt.Sprintf("key-%d", n),
		URL:        fmt.Sprintf("https://example.com/page%d", n),
		Title:      fmt.Sprintf("Page %d", n),
		Mode:       hal.ModeAuto,
		Method:     hal.MethodDOM,
		Confidence: 0.9,
	}
}

func TestHistoryService_Record(t *testing.T) {
	t.Parallel()

	t.Run("assigns ID and timestamp", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewHistoryService(setupTestDB(t))
		entry := pageEntry(1)

		err := svc.Record(context.Background(), entry)

		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.RecordedAt.IsZero())
	})

	t.Run("rejects invalid entry", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewHistoryService(setupTestDB(t))

		err := svc.Record(context.Background(), &hal.HistoryEntry{Kind: "bogus", Key: "k", URL: "u"})

		require.Error(t, err)
		assert.Equal(t, hal.EINVALID, hal.ErrorCode(err))
	})
}

func TestHistoryService_List(t *testing.T) {
	t.Parallel()

	t.Run("returns entries newest first", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewHistoryService(setupTestDB(t))
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			require.NoError(t, svc.Record(ctx, pageEntry(i)))
		}

		entries, err := svc.List(ctx, hal.HistoryFilter{})

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "key-3", entries[0].Key)
		assert.Equal(t, "key-1", entries[2].Key)
		assert.Equal(t, hal.MethodDOM, entries[0].Method)
		assert.InDelta(t, 0.9, entries[0].Confidence, 1e-9)
	})

	t.Run("filters by kind", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewHistoryService(setupTestDB(t))
		ctx := context.Background()
		require.NoError(t, svc.Record(ctx, pageEntry(1)))
		require.NoError(t, svc.Record(ctx, &hal.HistoryEntry{
			Kind: hal.HistoryFiling,
			Key:  "320193/0000320193-24-000123",
			URL:  "https://www.sec.gov/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm",
		}))

		kind := hal.HistoryFiling
		entries, err := svc.List(ctx, hal.HistoryFilter{Kind: &kind})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "320193/0000320193-24-000123", entries[0].Key)
	})

	t.Run("filters by url", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewHistoryService(setupTestDB(t))
		ctx := context.Background()
		require.NoError(t, svc.Record(ctx, pageEntry(1)))
		require.NoError(t, svc.Record(ctx, pageEntry(2)))

		url := "https://example.com/page2"
		entries, err := svc.List(ctx, hal.HistoryFilter{URL: &url})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Page 2", entries[0].Title)
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewHistoryService(setupTestDB(t))
		ctx := context.Background()
		for i := 1; i <= 5; i++ {
			require.NoError(t, svc.Record(ctx, pageEntry(i)))
		}

		entries, err := svc.List(ctx, hal.HistoryFilter{Limit: 2, Offset: 1})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "key-4", entries[0].Key)
		assert.Equal(t, "key-3", entries[1].Key)
	})

	t.Run("returns empty slice when catalog is empty", func(t *testing.T) {
		t.Parallel()

		entries, err := sqlite.NewHistoryService(setupTestDB(t)).List(context.Background(), hal.HistoryFilter{})

		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
