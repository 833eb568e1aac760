package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/feedgraph/backend/internal/testutil"
)

func TestCastVoteRacePostgres(t *testing.T) {
	_, db := testutil.Postgres(t)
	c := newTestCoordinator(db)
	c.now = time.Now
	p := seedPoll(t, db, time.Now().Add(time.Hour), "a", "b")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// users 0..4 each race four votes
			_, err := c.CastVote(context.Background(), p.ID, p.Options[i%2].ID, 100+i%5)
			if err != nil && !errors.Is(err, ErrAlreadyVoted) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	snap, err := c.Snapshot(context.Background(), p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.TotalVotes)
}
