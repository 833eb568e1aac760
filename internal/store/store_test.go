package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/database"
	"github.com/emilythestrangee/feedgraph/backend/internal/models"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func seedPost(t *testing.T, db *gorm.DB, p models.Post) models.Post {
	t.Helper()
	require.NoError(t, db.Create(&p).Error)
	return p
}

func intPtr(v int) *int { return &v }

func TestGetPost(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := New(db)

	p := seedPost(t, db, models.Post{AuthorID: 1, Content: "hello", CreatedAt: base})

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	assert.Nil(t, got.ParentPostID)

	_, err = s.GetPost(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestThreadScans(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := New(db)

	root := seedPost(t, db, models.Post{AuthorID: 1, Content: "A", CreatedAt: base})
	b := seedPost(t, db, models.Post{AuthorID: 1, Content: "B", ParentPostID: intPtr(root.ID), ThreadRootID: intPtr(root.ID), CreatedAt: base.Add(time.Minute)})
	other := seedPost(t, db, models.Post{AuthorID: 2, Content: "D", ParentPostID: intPtr(root.ID), ThreadRootID: intPtr(root.ID), CreatedAt: base.Add(90 * time.Second)})
	c := seedPost(t, db, models.Post{AuthorID: 1, Content: "C", ParentPostID: intPtr(b.ID), ThreadRootID: intPtr(root.ID), CreatedAt: base.Add(2 * time.Minute)})
	seedPost(t, db, models.Post{AuthorID: 1, Content: "unrelated", CreatedAt: base.Add(time.Second)})

	posts, err := s.ListThreadPosts(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []int{b.ID, other.ID, c.ID}, []int{posts[0].ID, posts[1].ID, posts[2].ID})

	n, err := s.CountChainBefore(ctx, root, c.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountChainBefore(ctx, root, root.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestListUserReplies(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := New(db)

	root := seedPost(t, db, models.Post{AuthorID: 2, Content: "root", CreatedAt: base})
	var replies []models.Post
	for i := 0; i < 3; i++ {
		replies = append(replies, seedPost(t, db, models.Post{
			AuthorID:     1,
			Content:      "reply",
			ParentPostID: intPtr(root.ID),
			ThreadRootID: intPtr(root.ID),
			CreatedAt:    base.Add(time.Duration(i+1) * time.Minute),
		}))
	}
	seedPost(t, db, models.Post{AuthorID: 1, Content: "top level", CreatedAt: base.Add(time.Hour)})

	got, err := s.ListUserReplies(ctx, 1, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, replies[2].ID, got[0].ID)

	got, err = s.ListUserReplies(ctx, 1, replies[2].CreatedAt, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, replies[1].ID, got[0].ID)
}

func TestFindQuoteCandidates(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := New(db)

	target := seedPost(t, db, models.Post{AuthorID: 2, Content: "original", CreatedAt: base})
	q := models.Quote{AuthorID: 1, Content: "x", QuotedPostID: target.ID, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, db.Create(&q).Error)
	require.NoError(t, db.Create(&models.Quote{AuthorID: 1, Content: "y", QuotedPostID: target.ID, CreatedAt: base.Add(time.Minute)}).Error)
	require.NoError(t, db.Create(&models.Quote{AuthorID: 3, Content: "x", QuotedPostID: target.ID, CreatedAt: base.Add(time.Minute)}).Error)

	at := base.Add(time.Minute + 500*time.Millisecond)
	got, err := s.FindQuoteCandidates(ctx, 1, "x", at.Add(-time.Second), at.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q.ID, got[0].ID)

	at = base.Add(time.Minute + 5*time.Second)
	got, err = s.FindQuoteCandidates(ctx, 1, "x", at.Add(-time.Second), at.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindQuoteCandidatesNonUTCWindow(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := New(db)

	target := seedPost(t, db, models.Post{AuthorID: 2, Content: "original", CreatedAt: base})
	q := models.Quote{AuthorID: 1, Content: "x", QuotedPostID: target.ID, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, db.Create(&q).Error)

	at := base.Add(time.Minute + 500*time.Millisecond).In(time.FixedZone("TRT", 3*3600))
	got, err := s.FindQuoteCandidates(ctx, 1, "x", at.Add(-time.Second), at.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q.ID, got[0].ID)
}

func TestCountsAndFlags(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := New(db)

	p := seedPost(t, db, models.Post{AuthorID: 1, Content: "p", CreatedAt: base})
	seedPost(t, db, models.Post{AuthorID: 2, Content: "r1", ParentPostID: intPtr(p.ID), ThreadRootID: intPtr(p.ID), CreatedAt: base.Add(time.Minute)})
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: p.ID, AuthorID: 3, Body: "legacy"}))
	require.NoError(t, s.CreateComment(ctx, &models.Comment{PostID: p.ID, AuthorID: 4, Body: "legacy 2"}))
	require.NoError(t, db.Create(&models.Quote{AuthorID: 5, Content: "q", QuotedPostID: p.ID, CreatedAt: base}).Error)

	liked, err := s.ToggleLike(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.True(t, liked)
	saved, err := s.ToggleBookmark(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.True(t, saved)

	n, err := s.CountLikes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.CountLegacyComments(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = s.CountReplies(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.CountQuotes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := s.HasLiked(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.HasBookmarked(ctx, p.ID, 8)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.HasQuoted(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	liked, err = s.ToggleLike(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.False(t, liked)
	n, err = s.CountLikes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestListSensitiveWords(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	s := New(db)

	words, err := s.ListSensitiveWords(ctx)
	require.NoError(t, err)
	assert.Empty(t, words)

	require.NoError(t, db.Create(&[]models.SensitiveWord{{Word: "kotu"}, {Word: "cirkin"}}).Error)
	words, err = s.ListSensitiveWords(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kotu", "cirkin"}, words)
}
