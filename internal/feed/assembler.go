// Package feed turns stored posts into the view objects returned to clients,
// merging thread position, quoted content, poll state and the viewer's own
// interactions.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/poll"
	"github.com/emilythestrangee/feedgraph/backend/internal/thread"
)

type Interactions interface {
	CountLikes(ctx context.Context, postID int) (int, error)
	CountQuotes(ctx context.Context, postID int) (int, error)
	CountLegacyComments(ctx context.Context, postID int) (int, error)
	CountReplies(ctx context.Context, postID int) (int, error)
	HasLiked(ctx context.Context, postID, userID int) (bool, error)
	HasBookmarked(ctx context.Context, postID, userID int) (bool, error)
	HasQuoted(ctx context.Context, postID, userID int) (bool, error)
}

type ThreadLocator interface {
	Locate(ctx context.Context, post models.Post) (thread.Position, error)
}

type QuoteSource interface {
	FindQuoteSource(ctx context.Context, post models.Post) (*models.Post, error)
}

type PollSource interface {
	ForPost(ctx context.Context, postID, viewerID int) (*poll.Snapshot, error)
}

// EnrichedPost is a post as one viewer sees it. AuthorID is nil when the post
// is anonymous and the viewer is not its author.
type EnrichedPost struct {
	ID           int       `json:"id"`
	AuthorID     *int      `json:"author_id"`
	Content      string    `json:"content"`
	ParentPostID *int      `json:"parent_post_id"`
	IsAnonymous  bool      `json:"is_anonymous"`
	IsCensored   bool      `json:"is_censored"`
	MediaURL     string    `json:"media_url,omitempty"`
	LinkURL      string    `json:"link_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	ThreadRootID     int  `json:"thread_root_id"`
	IsThreadRoot     bool `json:"is_thread_root"`
	MiddlePostsCount int  `json:"middle_posts_count"`

	QuotedPost *EnrichedPost  `json:"quoted_post"`
	Poll       *poll.Snapshot `json:"poll,omitempty"`

	IsLiked      bool `json:"is_liked"`
	IsBookmarked bool `json:"is_bookmarked"`
	IsQuoted     bool `json:"is_quoted"`

	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
	CommentCount int `json:"comment_count"`
}

type Assembler struct {
	interactions Interactions
	threads      ThreadLocator
	quotes       QuoteSource
	polls        PollSource
	logger       *slog.Logger
}

// NewAssembler wires the collaborators. polls may be nil.
func NewAssembler(interactions Interactions, threads ThreadLocator, quotes QuoteSource, polls PollSource, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		interactions: interactions,
		threads:      threads,
		quotes:       quotes,
		polls:        polls,
		logger:       logger.With("component", "feed"),
	}
}

// Enrich builds the view of post for viewerID (zero for signed-out viewers).
// Thread, quote and poll failures degrade the post; count and flag failures
// are returned.
func (a *Assembler) Enrich(ctx context.Context, post models.Post, viewerID int) (EnrichedPost, error) {
	out := view(post, viewerID)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pos, err := a.threads.Locate(gctx, post)
		if err != nil {
			degraded.WithLabelValues("thread").Inc()
			a.logger.Warn("thread resolution degraded", "post_id", post.ID, "err", err)
		}
		out.ThreadRootID = pos.RootID
		out.IsThreadRoot = pos.IsRoot
		out.MiddlePostsCount = pos.MiddlePostsCount
		return nil
	})

	g.Go(func() error {
		quoted, err := a.quotes.FindQuoteSource(gctx, post)
		if err != nil {
			degraded.WithLabelValues("quote").Inc()
			a.logger.Warn("quote lookup degraded", "post_id", post.ID, "err", err)
			return nil
		}
		if quoted != nil {
			qv := view(*quoted, viewerID)
			out.QuotedPost = &qv
		}
		return nil
	})

	if a.polls != nil {
		g.Go(func() error {
			snap, err := a.polls.ForPost(gctx, post.ID, viewerID)
			if err != nil {
				degraded.WithLabelValues("poll").Inc()
				a.logger.Warn("poll lookup degraded", "post_id", post.ID, "err", err)
				return nil
			}
			out.Poll = snap
			return nil
		})
	}

	var legacyComments, replies int
	counts := []struct {
		dst *int
		fn  func(context.Context, int) (int, error)
	}{
		{&out.LikeCount, a.interactions.CountLikes},
		{&out.QuoteCount, a.interactions.CountQuotes},
		{&legacyComments, a.interactions.CountLegacyComments},
		{&replies, a.interactions.CountReplies},
	}
	for _, c := range counts {
		g.Go(func() error {
			n, err := c.fn(gctx, post.ID)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}

	if viewerID != 0 {
		flags := []struct {
			dst *bool
			fn  func(context.Context, int, int) (bool, error)
		}{
			{&out.IsLiked, a.interactions.HasLiked},
			{&out.IsBookmarked, a.interactions.HasBookmarked},
			{&out.IsQuoted, a.interactions.HasQuoted},
		}
		for _, f := range flags {
			g.Go(func() error {
				ok, err := f.fn(gctx, post.ID, viewerID)
				if err != nil {
					return err
				}
				*f.dst = ok
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return EnrichedPost{}, fmt.Errorf("enrich post %d: %w", post.ID, err)
	}

	// posts that predate reply threads keep comments in the legacy table
	out.CommentCount = legacyComments + replies
	return out, nil
}

// EnrichAll enriches posts in order.
func (a *Assembler) EnrichAll(ctx context.Context, posts []models.Post, viewerID int) ([]EnrichedPost, error) {
	out := make([]EnrichedPost, len(posts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range posts {
		g.Go(func() error {
			e, err := a.Enrich(gctx, p, viewerID)
			if err != nil {
				return err
			}
			out[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func view(post models.Post, viewerID int) EnrichedPost {
	e := EnrichedPost{
		ID:           post.ID,
		Content:      post.Content,
		ParentPostID: post.ParentPostID,
		IsAnonymous:  post.IsAnonymous,
		IsCensored:   post.IsCensored,
		MediaURL:     post.MediaURL,
		LinkURL:      post.LinkURL,
		CreatedAt:    post.CreatedAt,
		ThreadRootID: post.ID,
		IsThreadRoot: true,
	}
	if !post.IsAnonymous || post.AuthorID == viewerID {
		author := post.AuthorID
		e.AuthorID = &author
	}
	return e
}
