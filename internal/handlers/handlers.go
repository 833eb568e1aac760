package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/feedgraph/backend/internal/feed"
	"github.com/emilythestrangee/feedgraph/backend/internal/poll"
	"github.com/emilythestrangee/feedgraph/backend/internal/posting"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
	"github.com/emilythestrangee/feedgraph/backend/internal/thread"
)

// Handler combines all handler types
type Handler struct {
	Post    *PostHandler
	Comment *CommentHandler
	Poll    *PollHandler
}

// Deps are the services the handlers call into.
type Deps struct {
	Store     *store.Store
	Threads   *thread.Resolver
	Feed      *feed.Assembler
	Publisher *posting.Publisher
	Polls     *poll.Coordinator
	Logger    *slog.Logger
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		Post:    NewPostHandler(d),
		Comment: NewCommentHandler(d.Store, d.Logger),
		Poll:    NewPollHandler(d.Polls, d.Logger),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// viewerID is the signed-in user, or zero.
func viewerID(c *gin.Context) int {
	id, _ := extractUserID(c)
	return id
}

func requireUser(c *gin.Context) (int, bool) {
	id, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return id, ok
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a 500.
func respondError(c *gin.Context, logger *slog.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, poll.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already voted on this poll"})
	case errors.Is(err, poll.ErrPollExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Poll has expired"})
	case errors.Is(err, poll.ErrInvalidPoll), errors.Is(err, posting.ErrInvalidPost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, posting.ErrForbidden), errors.Is(err, poll.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
