package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/hal"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ hal.History = (*HistoryService)(nil)

// HistoryService implements hal.History using SQLite.
type HistoryService struct {
	db  *DB
	now func() time.Time
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(db *DB) *HistoryService {
	return &HistoryService{db: db, now: time.Now}
}

// Record inserts a new entry.
func (s *HistoryService) Record(ctx context.Context, entry *hal.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	entry.ID = uuid.New().String()
	entry.RecordedAt = s.now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, kind, key, url, title, mode, method, confidence, content_hash, path, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Kind, entry.Key, entry.URL, entry.Title, entry.Mode, entry.Method,
		entry.Confidence, entry.ContentHash, entry.Path, entry.RecordedAt.Format(time.RFC3339))

	return err
}

// List retrieves entries matching the filter, newest first.
func (s *HistoryService) List(ctx context.Context, filter hal.HistoryFilter) ([]*hal.HistoryEntry, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, kind, key, url, title, mode, method, confidence, content_hash, path, recorded_at FROM history WHERE 1=1")

	if filter.Kind != nil {
		query.WriteString(" AND kind = ?")
		args = append(args, *filter.Kind)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	// rowid breaks ties between rows recorded within the same second.
	query.WriteString(" ORDER BY recorded_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*hal.HistoryEntry{}
	for rows.Next() {
		var e hal.HistoryEntry
		var recordedAt string

		if err := rows.Scan(&e.ID, &e.Kind, &e.Key, &e.URL, &e.Title, &e.Mode, &e.Method,
			&e.Confidence, &e.ContentHash, &e.Path, &recordedAt); err != nil {
			return nil, err
		}

		e.RecordedAt, err = parseRFC3339(recordedAt, "recorded_at")
		if err != nil {
			return nil, err
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
