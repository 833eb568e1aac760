package moderation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDenylist(fetch FetchFunc, ttl time.Duration) (*Denylist, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	d := NewDenylist(fetch, ttl, quietLogger)
	d.now = clock.Now
	return d, clock
}

func TestDenylistCachesUntilTTL(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	words := []string{"kotu"}

	d, clock := newTestDenylist(func(context.Context) ([]string, error) {
		calls.Add(1)
		return words, nil
	}, time.Minute)

	assert.Equal(t, []string{"kotu"}, d.Words(ctx))
	assert.Equal(t, []string{"kotu"}, d.Words(ctx))
	assert.EqualValues(t, 1, calls.Load())

	words = []string{"kotu", "Yeni"}
	clock.Advance(59 * time.Second)
	assert.Equal(t, []string{"kotu"}, d.Words(ctx))

	clock.Advance(time.Second)
	assert.Equal(t, []string{"kotu", "yeni"}, d.Words(ctx))
	assert.EqualValues(t, 2, calls.Load())
}

func TestDenylistInvalidate(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	d, _ := newTestDenylist(func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a"}, nil
	}, time.Hour)

	d.Words(ctx)
	d.Invalidate()
	d.Words(ctx)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDenylistInvalidateDuringFetch(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	var d *Denylist
	d, _ = newTestDenylist(func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			// a change lands while the first fetch is in flight
			d.Invalidate()
		}
		return []string{"a"}, nil
	}, time.Hour)

	assert.Equal(t, []string{"a"}, d.Words(ctx))
	d.Words(ctx)
	d.Words(ctx)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDenylistFetchErrorIsEmptyAndRetried(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	d, _ := newTestDenylist(func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("db down")
		}
		return []string{"kotu"}, nil
	}, time.Hour)

	assert.Empty(t, d.Words(ctx))
	assert.Equal(t, []string{"kotu"}, d.Words(ctx))
}

func TestDenylistConcurrentReadersShareFetch(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})
	d, _ := newTestDenylist(func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"kotu"}, nil
	}, time.Hour)

	var wg sync.WaitGroup
	results := make([][]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.Words(ctx)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, r := range results {
		assert.Equal(t, []string{"kotu"}, r)
	}
}

func TestDenylistFetchSurvivesCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, _ := newTestDenylist(func(ctx context.Context) ([]string, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []string{"kotu"}, nil
	}, time.Hour)

	assert.Equal(t, []string{"kotu"}, d.Words(ctx))
}
