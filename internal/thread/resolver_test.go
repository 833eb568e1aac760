package thread

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/feedgraph/backend/internal/database"
	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	posts    map[int]models.Post
	getCalls int
	failOn   int
}

func newFakeStore(posts ...models.Post) *fakeStore {
	f := &fakeStore{posts: map[int]models.Post{}}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakeStore) GetPost(_ context.Context, id int) (models.Post, error) {
	f.getCalls++
	if f.failOn != 0 && id == f.failOn {
		return models.Post{}, errors.New("connection reset")
	}
	p, ok := f.posts[id]
	if !ok {
		return models.Post{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListThreadPosts(_ context.Context, rootID int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.posts {
		if p.ThreadRootID != nil && *p.ThreadRootID == rootID && p.ID != rootID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CountChainBefore(_ context.Context, root models.Post, before time.Time) (int, error) {
	n := 0
	for _, p := range f.posts {
		inChain := p.ID == root.ID || (p.ThreadRootID != nil && *p.ThreadRootID == root.ID && p.AuthorID == root.AuthorID)
		if inChain && p.CreatedAt.Before(before) {
			n++
		}
	}
	return n, nil
}

func ref(v int) *int { return &v }

func post(id, author int, parent, root *int, at time.Duration) models.Post {
	return models.Post{ID: id, AuthorID: author, Content: "p", ParentPostID: parent, ThreadRootID: root, CreatedAt: base.Add(at)}
}

func newTestResolver(f PostStore, depth int) *Resolver {
	return NewResolver(f, depth, slog.New(slog.DiscardHandler))
}

func TestFindThreadRootOfRoot(t *testing.T) {
	a := post(1, 10, nil, nil, 0)
	r := newTestResolver(newFakeStore(a), 0)

	root, err := r.FindThreadRoot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, a, root)
}

func TestFindThreadRootWalksParents(t *testing.T) {
	f := newFakeStore(
		post(1, 10, nil, nil, 0),
		post(2, 10, ref(1), ref(1), time.Minute),
		post(3, 20, ref(2), ref(1), 2*time.Minute),
	)
	r := newTestResolver(f, 0)

	root, err := r.FindThreadRoot(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, root.ID)
}

func TestFindThreadRootNotFound(t *testing.T) {
	r := newTestResolver(newFakeStore(), 0)
	_, err := r.FindThreadRoot(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindThreadRootMissingParent(t *testing.T) {
	// post 2's parent was deleted
	f := newFakeStore(
		post(2, 10, ref(1), ref(1), time.Minute),
		post(3, 10, ref(2), ref(1), 2*time.Minute),
	)
	r := newTestResolver(f, 0)

	root, err := r.FindThreadRoot(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, root.ID)
}

func TestFindThreadRootCycle(t *testing.T) {
	f := newFakeStore(
		post(1, 10, ref(3), nil, 0),
		post(2, 10, ref(1), nil, time.Minute),
		post(3, 10, ref(2), nil, 2*time.Minute),
		post(4, 10, ref(3), nil, 3*time.Minute),
	)
	r := newTestResolver(f, 0)

	entry, err := r.FindThreadRoot(context.Background(), 4)
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.Equal(t, 3, entry.ID)
	assert.LessOrEqual(t, f.getCalls, DefaultMaxDepth+1)
}

func TestFindThreadRootSelfParent(t *testing.T) {
	f := newFakeStore(post(1, 10, ref(1), nil, 0))
	r := newTestResolver(f, 0)

	entry, err := r.FindThreadRoot(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.Equal(t, 1, entry.ID)
}

func TestFindThreadRootDepthBound(t *testing.T) {
	var posts []models.Post
	posts = append(posts, post(1, 10, nil, nil, 0))
	for i := 2; i <= 12; i++ {
		posts = append(posts, post(i, 10, ref(i-1), ref(1), time.Duration(i)*time.Minute))
	}
	f := newFakeStore(posts...)

	_, err := newTestResolver(f, 10).FindThreadRoot(context.Background(), 12)
	assert.ErrorIs(t, err, ErrMaxDepthExceeded)

	root, err := newTestResolver(f, 11).FindThreadRoot(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 1, root.ID)
}

func TestFindThreadRootStoreError(t *testing.T) {
	f := newFakeStore(post(1, 10, nil, nil, 0), post(2, 10, ref(1), ref(1), time.Minute))
	f.failOn = 1

	_, err := newTestResolver(f, 0).FindThreadRoot(context.Background(), 2)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestBuildThread(t *testing.T) {
	f := newFakeStore(
		post(1, 10, nil, nil, 0),
		post(2, 10, ref(1), ref(1), time.Minute),
		post(3, 10, ref(2), ref(1), 2*time.Minute),
		post(4, 20, ref(1), ref(1), 90*time.Second),
		post(5, 10, nil, nil, 3*time.Minute),
	)
	r := newTestResolver(f, 0)
	ctx := context.Background()

	th, err := r.BuildThread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(th.Chain))
	assert.Equal(t, []int{4}, ids(th.Branches))
	assert.Equal(t, 1, th.Root.ID)

	n, err := r.MiddlePostsCount(ctx, th.Root, f.posts[3])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	single, err := r.BuildThread(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, ids(single.Chain))
	assert.Empty(t, single.Branches)
}

func TestBuildThreadOrdersByCreation(t *testing.T) {
	f := newFakeStore(
		post(1, 10, nil, nil, 0),
		post(2, 10, ref(1), ref(1), 5*time.Minute),
		post(3, 10, ref(1), ref(1), time.Minute),
	)
	th, err := newTestResolver(f, 0).BuildThread(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 2}, ids(th.Chain))
}

func TestLocate(t *testing.T) {
	f := newFakeStore(
		post(1, 10, nil, nil, 0),
		post(2, 10, ref(1), ref(1), time.Minute),
		post(3, 10, ref(2), ref(1), 2*time.Minute),
		post(4, 20, ref(3), ref(1), 3*time.Minute),
		post(7, 10, ref(8), nil, 0),
		post(8, 10, ref(7), nil, 0),
	)
	r := newTestResolver(f, 0)
	ctx := context.Background()

	pos, err := r.Locate(ctx, f.posts[1])
	require.NoError(t, err)
	assert.Equal(t, Position{RootID: 1, IsRoot: true}, pos)

	pos, err = r.Locate(ctx, f.posts[3])
	require.NoError(t, err)
	assert.Equal(t, Position{RootID: 1, MiddlePostsCount: 2}, pos)

	pos, err = r.Locate(ctx, f.posts[4])
	require.NoError(t, err)
	assert.Equal(t, 3, pos.MiddlePostsCount)

	pos, err = r.Locate(ctx, f.posts[7])
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.Equal(t, 7, pos.RootID)
}

func TestBuildThreadWithDatabase(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := store.New(db)

	a := models.Post{AuthorID: 1, Content: "A", CreatedAt: base}
	require.NoError(t, db.Create(&a).Error)
	b := models.Post{AuthorID: 1, Content: "B", ParentPostID: &a.ID, ThreadRootID: &a.ID, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, db.Create(&b).Error)
	c := models.Post{AuthorID: 1, Content: "C", ParentPostID: &b.ID, ThreadRootID: &a.ID, CreatedAt: base.Add(2 * time.Minute)}
	require.NoError(t, db.Create(&c).Error)
	d := models.Post{AuthorID: 2, Content: "D", ParentPostID: &a.ID, ThreadRootID: &a.ID, CreatedAt: base.Add(3 * time.Minute)}
	require.NoError(t, db.Create(&d).Error)

	r := newTestResolver(s, 0)

	root, err := r.FindThreadRoot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, root.ID)

	th, err := r.BuildThread(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{a.ID, b.ID, c.ID}, ids(th.Chain))
	assert.Equal(t, []int{d.ID}, ids(th.Branches))

	pos, err := r.Locate(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, pos.MiddlePostsCount)
}

func ids(posts []models.Post) []int {
	out := make([]int, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
