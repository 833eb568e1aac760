package moderation

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const fetchTimeout = 5 * time.Second

// FetchFunc loads the raw denylist from its source of truth.
type FetchFunc func(ctx context.Context) ([]string, error)

type denylistSnapshot struct {
	words     []string
	expiresAt time.Time
}

// Denylist caches the administrator word list. Readers load an immutable
// snapshot; an expired or invalidated snapshot is replaced by whichever reader
// gets there first, with concurrent refreshes collapsed into one fetch.
type Denylist struct {
	fetch  FetchFunc
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	current    atomic.Pointer[denylistSnapshot]
	generation atomic.Uint64
	group      singleflight.Group
}

func NewDenylist(fetch FetchFunc, ttl time.Duration, logger *slog.Logger) *Denylist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Denylist{
		fetch:  fetch,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("component", "denylist"),
	}
}

// Words returns the cached denylist, refreshing it first if it has expired.
// A failed refresh yields an empty list.
func (d *Denylist) Words(ctx context.Context) []string {
	if snap := d.current.Load(); snap != nil && d.now().Before(snap.expiresAt) {
		return snap.words
	}

	v, _, _ := d.group.Do("refresh", func() (any, error) {
		return d.refresh(ctx), nil
	})
	return v.([]string)
}

// Invalidate drops the cached list so the next reader refetches it.
func (d *Denylist) Invalidate() {
	d.generation.Add(1)
	d.current.Store(nil)
}

func (d *Denylist) refresh(ctx context.Context) []string {
	gen := d.generation.Load()
	// another reader may have finished a refresh since our first check
	if snap := d.current.Load(); snap != nil && d.now().Before(snap.expiresAt) {
		return snap.words
	}

	// detached from the caller: other readers share this fetch
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
	defer cancel()

	raw, err := d.fetch(ctx)
	if err != nil {
		denylistFetchErrors.Inc()
		d.logger.Warn("denylist unavailable, classifying without it", "err", err)
		return nil
	}

	words := normalizeWords(raw)
	denylistRefreshes.Inc()
	if d.generation.Load() == gen {
		d.current.Store(&denylistSnapshot{words: words, expiresAt: d.now().Add(d.ttl)})
	}
	return words
}
