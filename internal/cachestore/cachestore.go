// Package cachestore caches short string values with a fixed TTL, either in
// process or in Redis so that several API instances share results.
package cachestore

import (
	"context"
)

type CacheStore interface {
	// Get reports whether key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, val string) error
	Purge(ctx context.Context, key string) error
}
