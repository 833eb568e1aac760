package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "feedgraph/cache/"

// RedisCacheStore keeps values in Redis, fronted by a small in-process TinyLFU.
type RedisCacheStore struct {
	client *redis.Client
	data   *cache.Cache
	ttl    time.Duration
}

var _ CacheStore = (*RedisCacheStore)(nil)

func NewRedisCacheStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCacheStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// local copies expire sooner so purges on another instance are seen quickly
	localTTL := min(ttl, time.Minute)
	return &RedisCacheStore{
		client: client,
		data: cache.New(&cache.Options{
			Redis:      client,
			LocalCache: cache.NewTinyLFU(10_000, localTTL),
		}),
		ttl: ttl,
	}, nil
}

func (s *RedisCacheStore) Get(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := s.data.Get(ctx, redisPrefix+key, &val)
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, key, val string) error {
	err := s.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisPrefix + key,
		Value: val,
		TTL:   s.ttl,
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *RedisCacheStore) Purge(ctx context.Context, key string) error {
	err := s.data.Delete(ctx, redisPrefix+key)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("cache purge: %w", err)
	}
	return nil
}

func (s *RedisCacheStore) Close() error {
	return s.client.Close()
}
