package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/feedgraph/backend/internal/feed"
	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/posting"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
	"github.com/emilythestrangee/feedgraph/backend/internal/thread"
)

type PostHandler struct {
	store     *store.Store
	threads   *thread.Resolver
	feed      *feed.Assembler
	publisher *posting.Publisher
	logger    *slog.Logger
}

func NewPostHandler(d Deps) *PostHandler {
	return &PostHandler{
		store:     d.Store,
		threads:   d.Threads,
		feed:      d.Feed,
		publisher: d.Publisher,
		logger:    d.Logger,
	}
}

// GetPost returns a single post as the caller sees it
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}

	enriched, err := h.feed.Enrich(c.Request.Context(), post, viewerID(c))
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	c.JSON(http.StatusOK, enriched)
}

// GetThread returns the thread containing a post: the root, the root
// author's chain and everyone else's replies.
func (h *PostHandler) GetThread(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	root, err := h.threads.FindThreadRoot(ctx, postID)
	switch {
	case err == nil, errors.Is(err, thread.ErrCycleDetected):
	case errors.Is(err, thread.ErrMaxDepthExceeded):
		// show the post as its own thread rather than nothing
		root.ID = postID
	default:
		respondError(c, h.logger, err, "Post not found")
		return
	}

	t, err := h.threads.BuildThread(ctx, root.ID)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}

	viewer := viewerID(c)
	rootView, err := h.feed.Enrich(ctx, t.Root, viewer)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	chain, err := h.feed.EnrichAll(ctx, t.Chain, viewer)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	branches, err := h.feed.EnrichAll(ctx, t.Branches, viewer)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"root":     rootView,
		"chain":    chain,
		"branches": branches,
	})
}

// GetUserReplies lists a user's replies, newest first. Paginate with
// ?before=<RFC3339 timestamp>&limit=<n>.
func (h *PostHandler) GetUserReplies(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC3339 timestamp"})
			return
		}
		before = t.UTC()
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	posts, err := h.store.ListUserReplies(c.Request.Context(), userID, before, limit)
	if err != nil {
		respondError(c, h.logger, err, "User not found")
		return
	}

	enriched, err := h.feed.EnrichAll(c.Request.Context(), posts, viewerID(c))
	if err != nil {
		respondError(c, h.logger, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, enriched)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	authorID, ok := requireUser(c)
	if !ok {
		return
	}

	post, err := h.publisher.Create(c.Request.Context(), authorID, input)
	if err != nil {
		respondError(c, h.logger, err, "Referenced post not found")
		return
	}

	enriched, err := h.feed.Enrich(c.Request.Context(), post, authorID)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	c.JSON(http.StatusCreated, enriched)
}

// DeletePost deletes a post (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.publisher.Delete(c.Request.Context(), postID, userID); err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// LikePost toggles the caller's like
func (h *PostHandler) LikePost(c *gin.Context) {
	h.toggle(c, "liked", h.store.ToggleLike, h.store.CountLikes)
}

// BookmarkPost toggles the caller's bookmark
func (h *PostHandler) BookmarkPost(c *gin.Context) {
	h.toggle(c, "bookmarked", h.store.ToggleBookmark, nil)
}

func (h *PostHandler) toggle(
	c *gin.Context,
	key string,
	fn func(ctx context.Context, postID, userID int) (bool, error),
	count func(ctx context.Context, postID int) (int, error),
) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.store.GetPost(ctx, postID); err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}

	on, err := fn(ctx, postID, userID)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}

	resp := gin.H{key: on}
	if count != nil {
		n, err := count(ctx, postID)
		if err != nil {
			respondError(c, h.logger, err, "Post not found")
			return
		}
		resp["like_count"] = n
	}
	c.JSON(http.StatusOK, resp)
}
