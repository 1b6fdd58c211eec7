package mock

import (
	"context"

	"github.com/fwojciec/hal"
)

var _ hal.History = (*History)(nil)

// History is a mock implementation of hal.History.
type History struct {
	RecordFn func(ctx context.Context, entry *hal.HistoryEntry) error
	ListFn   func(ctx context.Context, filter hal.HistoryFilter) ([]*hal.HistoryEntry, error)
}

func (h *History) Record(ctx context.Context, entry *hal.HistoryEntry) error {
	return h.RecordFn(ctx, entry)
}

func (h *History) List(ctx context.Context, filter hal.HistoryFilter) ([]*hal.HistoryEntry, error) {
	return h.ListFn(ctx, filter)
}
