package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemCacheStore struct {
	data *expirable.LRU[string, string]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, ttl time.Duration) *MemCacheStore {
	return &MemCacheStore{
		data: expirable.NewLRU[string, string](capacity, nil, ttl),
	}
}

func (s *MemCacheStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.data.Get(key)
	return v, ok, nil
}

func (s *MemCacheStore) Set(_ context.Context, key, val string) error {
	s.data.Add(key, val)
	return nil
}

func (s *MemCacheStore) Purge(_ context.Context, key string) error {
	s.data.Remove(key)
	return nil
}
