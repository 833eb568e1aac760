package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/poll"
)

type PollHandler struct {
	polls  *poll.Coordinator
	logger *slog.Logger
}

func NewPollHandler(polls *poll.Coordinator, logger *slog.Logger) *PollHandler {
	return &PollHandler{polls: polls, logger: logger}
}

// GetPoll returns a poll with the caller's selection marked
func (h *PollHandler) GetPoll(c *gin.Context) {
	pollID, ok := paramID(c, "id")
	if !ok {
		return
	}

	snap, err := h.polls.Snapshot(c.Request.Context(), pollID, viewerID(c))
	if err != nil {
		respondError(c, h.logger, err, "Poll not found")
		return
	}
	c.JSON(http.StatusOK, snap)
}

// CreatePoll attaches a poll to one of the caller's posts
func (h *PollHandler) CreatePoll(c *gin.Context) {
	var input models.CreatePollRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_id, options and expires_at are required"})
		return
	}
	authorID, ok := requireUser(c)
	if !ok {
		return
	}

	snap, err := h.polls.CreatePoll(c.Request.Context(), authorID, input)
	if err != nil {
		respondError(c, h.logger, err, "Post not found")
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// CastVote records the caller's vote (PROTECTED - one vote per user)
func (h *PollHandler) CastVote(c *gin.Context) {
	pollID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.CastVoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option_id is required"})
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	snap, err := h.polls.CastVote(c.Request.Context(), pollID, input.OptionID, userID)
	if err != nil {
		respondError(c, h.logger, err, "Poll or option not found")
		return
	}
	c.JSON(http.StatusOK, snap)
}
