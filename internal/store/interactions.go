package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
)

func (s *Store) count(ctx context.Context, model any, query string, args ...any) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	n, err := s.count(ctx, model, query, args...)
	return n > 0, err
}

func (s *Store) CountLikes(ctx context.Context, postID int) (int, error) {
	n, err := s.count(ctx, &models.Like{}, "post_id = ?", postID)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (s *Store) CountQuotes(ctx context.Context, postID int) (int, error) {
	n, err := s.count(ctx, &models.Quote{}, "quoted_post_id = ?", postID)
	if err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	return n, nil
}

// CountLegacyComments counts rows in the pre-migration comment table.
func (s *Store) CountLegacyComments(ctx context.Context, postID int) (int, error) {
	n, err := s.count(ctx, &models.Comment{}, "post_id = ?", postID)
	if err != nil {
		return 0, fmt.Errorf("count legacy comments: %w", err)
	}
	return n, nil
}

// CountReplies counts posts replying directly to postID.
func (s *Store) CountReplies(ctx context.Context, postID int) (int, error) {
	n, err := s.count(ctx, &models.Post{}, "parent_post_id = ?", postID)
	if err != nil {
		return 0, fmt.Errorf("count replies: %w", err)
	}
	return n, nil
}

func (s *Store) HasLiked(ctx context.Context, postID, userID int) (bool, error) {
	ok, err := s.exists(ctx, &models.Like{}, "post_id = ? AND user_id = ?", postID, userID)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return ok, nil
}

func (s *Store) HasBookmarked(ctx context.Context, postID, userID int) (bool, error) {
	ok, err := s.exists(ctx, &models.Bookmark{}, "post_id = ? AND user_id = ?", postID, userID)
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return ok, nil
}

// HasQuoted reports whether userID has already quote-reposted postID.
func (s *Store) HasQuoted(ctx context.Context, postID, userID int) (bool, error) {
	ok, err := s.exists(ctx, &models.Quote{}, "quoted_post_id = ? AND author_id = ?", postID, userID)
	if err != nil {
		return false, fmt.Errorf("check quote: %w", err)
	}
	return ok, nil
}

// ToggleLike likes the post, or removes the like if one exists. It returns
// whether the post is liked afterwards.
func (s *Store) ToggleLike(ctx context.Context, postID, userID int) (bool, error) {
	liked, err := s.toggle(ctx, &models.Like{UserID: userID, PostID: postID})
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return liked, nil
}

func (s *Store) ToggleBookmark(ctx context.Context, postID, userID int) (bool, error) {
	saved, err := s.toggle(ctx, &models.Bookmark{UserID: userID, PostID: postID})
	if err != nil {
		return false, fmt.Errorf("toggle bookmark: %w", err)
	}
	return saved, nil
}

func (s *Store) toggle(ctx context.Context, row any) (bool, error) {
	var on bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(row).Delete(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			on = false
			return nil
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		on = true
		return nil
	})
	// a concurrent toggle already inserted the same row
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, nil
	}
	return on, err
}

func (s *Store) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Preload("User").
		Order("created_at desc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}
