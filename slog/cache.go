package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/hal"
)

// Ensure LoggingCacheStore implements hal.CacheStore.
var _ hal.CacheStore = (*LoggingCacheStore)(nil)

// LoggingCacheStore wraps a CacheStore with logging. Misses are logged at
// debug level as hit=false rather than as errors.
type LoggingCacheStore struct {
	next   hal.CacheStore
	logger *slog.Logger
}

// NewLoggingCacheStore creates a new LoggingCacheStore.
func NewLoggingCacheStore(next hal.CacheStore, logger *slog.Logger) *LoggingCacheStore {
	return &LoggingCacheStore{next: next, logger: logger}
}

// Get delegates to the wrapped store and logs the lookup.
func (s *LoggingCacheStore) Get(ctx context.Context, key hal.CacheKey) (artifact *hal.Artifact, err error) {
	defer func(begin time.Time) {
		if hal.ErrorCode(err) == hal.ENOTFOUND {
			s.logger.Debug("cache get", "key", key, "hit", false, "duration", time.Since(begin))
			return
		}
		s.logger.Info("cache get",
			"key", key,
			"hit", err == nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Get(ctx, key)
}

// Put delegates to the wrapped store and logs the write.
func (s *LoggingCacheStore) Put(ctx context.Context, key hal.CacheKey, artifact *hal.Artifact) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("cache put",
			"key", key,
			"url", artifact.Result.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Put(ctx, key, artifact)
}
