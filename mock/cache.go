package mock

import (
	"context"

	"github.com/fwojciec/hal"
)

var _ hal.CacheStore = (*CacheStore)(nil)

// CacheStore is a mock implementation of hal.CacheStore.
type CacheStore struct {
	GetFn func(ctx context.Context, key hal.CacheKey) (*hal.Artifact, error)
	PutFn func(ctx context.Context, key hal.CacheKey, artifact *hal.Artifact) error
}

func (s *CacheStore) Get(ctx context.Context, key hal.CacheKey) (*hal.Artifact, error) {
	return s.GetFn(ctx, key)
}

func (s *CacheStore) Put(ctx context.Context, key hal.CacheKey, artifact *hal.Artifact) error {
	return s.PutFn(ctx, key, artifact)
}
