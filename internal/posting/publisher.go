// Package posting is the write path for posts: moderation at creation time,
// thread root assignment, the companion Quote row for quote-reposts, and the
// cascade on delete.
package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
	"github.com/emilythestrangee/feedgraph/backend/internal/thread"
)

var (
	ErrForbidden   = errors.New("not the author of this post")
	ErrInvalidPost = errors.New("invalid post")
)

type Classifier interface {
	ShouldCensor(ctx context.Context, content string) bool
}

type RootResolver interface {
	RootOf(ctx context.Context, post models.Post) (models.Post, error)
}

type QuoteMatcher interface {
	OwnedCompanionQuote(ctx context.Context, post models.Post) (*models.Quote, error)
	Forget(ctx context.Context, postID int)
}

type Publisher struct {
	db         *gorm.DB
	store      *store.Store
	classifier Classifier
	threads    RootResolver
	quotes     QuoteMatcher
	now        func() time.Time
	logger     *slog.Logger
}

func NewPublisher(db *gorm.DB, classifier Classifier, threads RootResolver, quotes QuoteMatcher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		db:         db,
		store:      store.New(db),
		classifier: classifier,
		threads:    threads,
		quotes:     quotes,
		now:        time.Now,
		logger:     logger.With("component", "posting"),
	}
}

// Create stores a new post by authorID. A quote-repost also gets its Quote
// row, written in the same transaction with the same timestamp.
func (p *Publisher) Create(ctx context.Context, authorID int, req models.CreatePostRequest) (models.Post, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return models.Post{}, fmt.Errorf("%w: content is required", ErrInvalidPost)
	}

	post := models.Post{
		AuthorID:     authorID,
		Content:      content,
		ParentPostID: req.ParentPostID,
		IsAnonymous:  req.IsAnonymous,
		MediaURL:     req.MediaURL,
		LinkURL:      req.LinkURL,
		// postgres keeps microseconds; both rows must round-trip identically
		CreatedAt: p.now().UTC().Truncate(time.Microsecond),
	}

	if req.ParentPostID != nil {
		parent, err := p.store.GetPost(ctx, *req.ParentPostID)
		if err != nil {
			return models.Post{}, fmt.Errorf("parent post: %w", err)
		}
		rootID, err := p.rootFor(ctx, parent)
		if err != nil {
			return models.Post{}, err
		}
		post.ThreadRootID = &rootID
	}
	if req.QuotedPostID != nil {
		if _, err := p.store.GetPost(ctx, *req.QuotedPostID); err != nil {
			return models.Post{}, fmt.Errorf("quoted post: %w", err)
		}
	}

	post.IsCensored = p.classifier.ShouldCensor(ctx, content)

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		if req.QuotedPostID == nil {
			return nil
		}
		q := models.Quote{
			AuthorID:     authorID,
			Content:      content,
			QuotedPostID: *req.QuotedPostID,
			CreatedAt:    post.CreatedAt,
		}
		if err := tx.Create(&q).Error; err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Post{}, err
	}

	p.logger.Info("post created", "post_id", post.ID, "author_id", authorID, "censored", post.IsCensored)
	return post, nil
}

// rootFor picks the thread root for a reply to parent. Corrupt parent links
// degrade to the parent's stored root, or the parent itself.
func (p *Publisher) rootFor(ctx context.Context, parent models.Post) (int, error) {
	root, err := p.threads.RootOf(ctx, parent)
	switch {
	case err == nil:
		return root.ID, nil
	case errors.Is(err, thread.ErrCycleDetected):
		return root.ID, nil
	case errors.Is(err, thread.ErrMaxDepthExceeded):
		p.logger.Warn("thread root unresolved, using parent", "parent_id", parent.ID, "err", err)
		if parent.ThreadRootID != nil {
			return *parent.ThreadRootID, nil
		}
		return parent.ID, nil
	default:
		return 0, err
	}
}

// Delete removes userID's post together with its likes, bookmarks, legacy
// comments, polls, the quotes of it and its own companion Quote row. Replies
// are left in place.
func (p *Publisher) Delete(ctx context.Context, postID, userID int) error {
	post, err := p.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrForbidden
	}

	companion, err := p.quotes.OwnedCompanionQuote(ctx, post)
	if err != nil {
		// the quote row is left orphaned; reads never follow it back
		p.logger.Warn("companion quote lookup failed", "post_id", postID, "err", err)
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pollIDs []int
		if err := tx.Model(&models.Poll{}).Where("post_id = ?", postID).Pluck("id", &pollIDs).Error; err != nil {
			return fmt.Errorf("list polls: %w", err)
		}
		if len(pollIDs) > 0 {
			if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollVote{}).Error; err != nil {
				return fmt.Errorf("delete poll votes: %w", err)
			}
			if err := tx.Where("poll_id IN ?", pollIDs).Delete(&models.PollOption{}).Error; err != nil {
				return fmt.Errorf("delete poll options: %w", err)
			}
			if err := tx.Where("id IN ?", pollIDs).Delete(&models.Poll{}).Error; err != nil {
				return fmt.Errorf("delete polls: %w", err)
			}
		}

		for _, dep := range []any{&models.Like{}, &models.Bookmark{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", postID).Delete(dep).Error; err != nil {
				return fmt.Errorf("delete %T: %w", dep, err)
			}
		}
		if err := tx.Where("quoted_post_id = ?", postID).Delete(&models.Quote{}).Error; err != nil {
			return fmt.Errorf("delete quotes of post: %w", err)
		}
		if companion != nil {
			if err := tx.Delete(&models.Quote{}, companion.ID).Error; err != nil {
				return fmt.Errorf("delete companion quote: %w", err)
			}
		}
		if err := tx.Delete(&models.Post{}, postID).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.quotes.Forget(ctx, postID)
	p.logger.Info("post deleted", "post_id", postID, "author_id", userID)
	return nil
}
