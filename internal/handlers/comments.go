package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
)

// CommentHandler serves the legacy comment table. New replies are posts.
type CommentHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func NewCommentHandler(s *store.Store, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{store: s, logger: logger}
}

// GetComments returns all legacy comments for a post, newest first
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	comments, err := h.store.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body is required"})
		return
	}

	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	authorID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// Verify post exists
	if _, err := h.store.GetPost(ctx, postID); err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}

	comment := models.Comment{
		Body:     strings.TrimSpace(input.Body),
		PostID:   postID,
		AuthorID: authorID,
	}
	if err := h.store.CreateComment(ctx, &comment); err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	c.JSON(http.StatusCreated, comment)
}
