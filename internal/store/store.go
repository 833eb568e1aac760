package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
)

// ErrNotFound is returned by point lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

// Store is the gorm-backed storage collaborator: point lookups, range scans
// and counts over the feed tables. It holds no state beyond the handle.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) GetPost(ctx context.Context, id int) (models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Post{}, ErrNotFound
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

// ListThreadPosts returns every post pointing at rootID as its thread root,
// oldest first. The root itself is not included.
func (s *Store) ListThreadPosts(ctx context.Context, rootID int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("thread_root_id = ? AND id <> ?", rootID, rootID).
		Order("created_at asc, id asc").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list thread posts: %w", err)
	}
	return posts, nil
}

// CountChainBefore counts the root and the root author's own continuation
// posts created strictly before the given time.
func (s *Store) CountChainBefore(ctx context.Context, root models.Post, before time.Time) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("(id = ? OR (thread_root_id = ? AND author_id = ?)) AND created_at < ?", root.ID, root.ID, root.AuthorID, before.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count chain posts: %w", err)
	}
	return int(n), nil
}

// ListUserReplies scans a user's reply posts newest first. A zero before
// starts from the latest post.
func (s *Store) ListUserReplies(ctx context.Context, userID int, before time.Time, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	q := s.db.WithContext(ctx).
		Where("author_id = ? AND parent_post_id IS NOT NULL", userID)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before.UTC())
	}

	var posts []models.Post
	if err := q.Order("created_at desc, id desc").Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list user replies: %w", err)
	}
	return posts, nil
}

// FindQuoteCandidates returns quote rows by authorID with exactly this
// content, created within [from, to]. Bounds are compared in UTC so SQLite's
// text timestamps order correctly.
func (s *Store) FindQuoteCandidates(ctx context.Context, authorID int, content string, from, to time.Time) ([]models.Quote, error) {
	var quotes []models.Quote
	err := s.db.WithContext(ctx).
		Where("author_id = ? AND created_at >= ? AND created_at <= ? AND content = ?", authorID, from.UTC(), to.UTC(), content).
		Order("id asc").
		Find(&quotes).Error
	if err != nil {
		return nil, fmt.Errorf("find quote candidates: %w", err)
	}
	return quotes, nil
}

// CountPostsByContent counts authorID's other posts with exactly this content
// created within [from, to].
func (s *Store) CountPostsByContent(ctx context.Context, authorID, excludeID int, content string, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ? AND id <> ? AND created_at >= ? AND created_at <= ? AND content = ?", authorID, excludeID, from.UTC(), to.UTC(), content).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count posts by content: %w", err)
	}
	return n, nil
}

// ListSensitiveWords returns the administrator denylist.
func (s *Store) ListSensitiveWords(ctx context.Context) ([]string, error) {
	var words []string
	if err := s.db.WithContext(ctx).Model(&models.SensitiveWord{}).Pluck("word", &words).Error; err != nil {
		return nil, fmt.Errorf("list sensitive words: %w", err)
	}
	return words, nil
}
