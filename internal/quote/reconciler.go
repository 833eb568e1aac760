// Package quote pairs a quote-repost Post with the Quote row written next to
// it, by author, content and a creation-time window.
package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/emilythestrangee/feedgraph/backend/internal/cachestore"
	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
)

const (
	DefaultWindow = time.Second

	// Quote rows younger than this may still be in flight, so a miss is not
	// cached until the post has settled.
	DefaultSettle = 30 * time.Second

	noQuote = "none"
)

type Store interface {
	GetPost(ctx context.Context, id int) (models.Post, error)
	FindQuoteCandidates(ctx context.Context, authorID int, content string, from, to time.Time) ([]models.Quote, error)
	CountPostsByContent(ctx context.Context, authorID, excludeID int, content string, from, to time.Time) (int64, error)
}

type Reconciler struct {
	store  Store
	cache  cachestore.CacheStore
	window time.Duration
	settle time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewReconciler builds a reconciler. cache may be nil to disable caching.
func NewReconciler(s Store, cache cachestore.CacheStore, window time.Duration, logger *slog.Logger) *Reconciler {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:  s,
		cache:  cache,
		window: window,
		settle: DefaultSettle,
		now:    time.Now,
		logger: logger.With("component", "quote"),
	}
}

// FindQuoteSource returns the post that post quotes, or nil when post is not a
// quote-repost or the quoted post no longer exists. Only storage failures are
// returned as errors.
func (r *Reconciler) FindQuoteSource(ctx context.Context, post models.Post) (*models.Post, error) {
	quotedID, ok := r.cached(ctx, post.ID)
	if !ok {
		q, err := r.FindCompanionQuote(ctx, post)
		if err != nil {
			return nil, err
		}
		if q != nil {
			quotedID = q.QuotedPostID
		}
		r.remember(ctx, post, quotedID)
	}
	if quotedID == 0 {
		return nil, nil
	}

	quoted, err := r.store.GetPost(ctx, quotedID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hydrate quoted post: %w", err)
	}
	return &quoted, nil
}

// FindCompanionQuote returns the Quote row written alongside post, or nil.
// Several rows inside the window resolve to the closest timestamp, then the
// lowest id.
func (r *Reconciler) FindCompanionQuote(ctx context.Context, post models.Post) (*models.Quote, error) {
	candidates, err := r.store.FindQuoteCandidates(ctx, post.AuthorID, post.Content,
		post.CreatedAt.Add(-r.window), post.CreatedAt.Add(r.window))
	if err != nil {
		return nil, fmt.Errorf("find companion quote: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		d, bestD := delta(c.CreatedAt, post.CreatedAt), delta(best.CreatedAt, post.CreatedAt)
		if d < bestD || (d == bestD && c.ID < best.ID) {
			best = c
		}
	}
	if len(candidates) > 1 {
		ambiguousMatches.Inc()
		r.logger.Info("ambiguous quote match", "post_id", post.ID, "candidates", len(candidates), "picked", best.ID)
	}
	return &best, nil
}

// OwnedCompanionQuote is FindCompanionQuote limited to a quote that only post
// can claim. When another post by the same author with the same content sits
// inside the window around the quote it returns nil, leaving the row alone.
func (r *Reconciler) OwnedCompanionQuote(ctx context.Context, post models.Post) (*models.Quote, error) {
	q, err := r.FindCompanionQuote(ctx, post)
	if err != nil || q == nil {
		return q, err
	}
	siblings, err := r.store.CountPostsByContent(ctx, post.AuthorID, post.ID, post.Content,
		q.CreatedAt.Add(-r.window), q.CreatedAt.Add(r.window))
	if err != nil {
		return nil, fmt.Errorf("count sibling posts: %w", err)
	}
	if siblings > 0 {
		r.logger.Info("companion quote shared with sibling posts", "post_id", post.ID, "quote_id", q.ID, "siblings", siblings)
		return nil, nil
	}
	return q, nil
}

// Forget drops the cached result for postID.
func (r *Reconciler) Forget(ctx context.Context, postID int) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Purge(ctx, cacheKey(postID)); err != nil {
		r.logger.Warn("failed to purge quote cache", "post_id", postID, "err", err)
	}
}

func (r *Reconciler) cached(ctx context.Context, postID int) (int, bool) {
	if r.cache == nil {
		return 0, false
	}
	val, ok, err := r.cache.Get(ctx, cacheKey(postID))
	if err != nil {
		r.logger.Warn("quote cache read failed", "post_id", postID, "err", err)
		return 0, false
	}
	if !ok {
		cacheLookups.WithLabelValues("miss").Inc()
		return 0, false
	}
	cacheLookups.WithLabelValues("hit").Inc()
	if val == noQuote {
		return 0, true
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r *Reconciler) remember(ctx context.Context, post models.Post, quotedID int) {
	if r.cache == nil {
		return
	}
	val := noQuote
	if quotedID != 0 {
		val = strconv.Itoa(quotedID)
	} else if r.now().Sub(post.CreatedAt) < r.settle {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(post.ID), val); err != nil {
		r.logger.Warn("quote cache write failed", "post_id", post.ID, "err", err)
	}
}

func cacheKey(postID int) string {
	return "quote/" + strconv.Itoa(postID)
}

func delta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
