// Package poll records votes on post polls. Casting a vote is the one strict
// operation in the feed core: late and repeated votes are rejected, and a
// vote and its tally increment commit together or not at all.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/feedgraph/backend/internal/models"
	"github.com/emilythestrangee/feedgraph/backend/internal/moderation"
	"github.com/emilythestrangee/feedgraph/backend/internal/store"
)

const maxOptions = 10

var (
	ErrPollExpired  = errors.New("poll has expired")
	ErrAlreadyVoted = errors.New("user already voted on this poll")
	ErrInvalidPoll  = errors.New("invalid poll")
	ErrNotAuthor    = errors.New("only the post author can attach a poll")
)

// OptionSnapshot is one option as seen by a particular viewer.
type OptionSnapshot struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	VoteCount  int    `json:"vote_count"`
	IsSelected bool   `json:"is_selected"`
}

type Snapshot struct {
	ID         int              `json:"id"`
	PostID     int              `json:"post_id"`
	Question   string           `json:"question"`
	Options    []OptionSnapshot `json:"options"`
	TotalVotes int              `json:"total_votes"`
	IsVoted    bool             `json:"is_voted"`
	ExpiresAt  time.Time        `json:"expires_at"`
	IsExpired  bool             `json:"is_expired"`
}

type Coordinator struct {
	db     *gorm.DB
	words  moderation.WordSource
	now    func() time.Time
	logger *slog.Logger
}

// NewCoordinator builds a coordinator. words feeds the poll text filter and
// may be nil.
func NewCoordinator(db *gorm.DB, words moderation.WordSource, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		db:     db,
		words:  words,
		now:    time.Now,
		logger: logger.With("component", "poll"),
	}
}

// CastVote records userID's vote for optionID and returns the poll as that
// user now sees it.
func (c *Coordinator) CastVote(ctx context.Context, pollID, optionID, userID int) (Snapshot, error) {
	var snap Snapshot
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var poll models.Poll
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&poll, pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("poll %d: %w", pollID, store.ErrNotFound)
			}
			return fmt.Errorf("lock poll: %w", err)
		}
		if !c.now().Before(poll.ExpiresAt) {
			return ErrPollExpired
		}

		var voted int64
		if err := tx.Model(&models.PollVote{}).Where("poll_id = ? AND user_id = ?", pollID, userID).Count(&voted).Error; err != nil {
			return fmt.Errorf("check existing vote: %w", err)
		}
		if voted > 0 {
			return ErrAlreadyVoted
		}

		var option models.PollOption
		err := tx.Where("id = ? AND poll_id = ?", optionID, pollID).First(&option).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("option %d: %w", optionID, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get option: %w", err)
		}

		vote := models.PollVote{PollID: pollID, OptionID: optionID, UserID: userID}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyVoted
			}
			return fmt.Errorf("insert vote: %w", err)
		}
		res := tx.Model(&models.PollOption{}).Where("id = ?", optionID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment vote count: %w", res.Error)
		}

		snap, err = c.snapshot(tx, poll, userID)
		return err
	})
	if err != nil {
		voteResults.WithLabelValues(voteResult(err)).Inc()
		return Snapshot{}, err
	}
	voteResults.WithLabelValues("accepted").Inc()
	c.logger.Debug("vote cast", "poll_id", pollID, "option_id", optionID, "user_id", userID)
	return snap, nil
}

// Snapshot returns the poll as viewerID sees it. A zero viewerID sees no
// selection.
func (c *Coordinator) Snapshot(ctx context.Context, pollID, viewerID int) (Snapshot, error) {
	var poll models.Poll
	err := c.db.WithContext(ctx).First(&poll, pollID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, fmt.Errorf("poll %d: %w", pollID, store.ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get poll: %w", err)
	}
	return c.snapshot(c.db.WithContext(ctx), poll, viewerID)
}

// ForPost returns the snapshot of the poll attached to postID, or nil.
func (c *Coordinator) ForPost(ctx context.Context, postID, viewerID int) (*Snapshot, error) {
	var polls []models.Poll
	if err := c.db.WithContext(ctx).Where("post_id = ?", postID).Limit(1).Find(&polls).Error; err != nil {
		return nil, fmt.Errorf("find post poll: %w", err)
	}
	if len(polls) == 0 {
		return nil, nil
	}
	snap, err := c.snapshot(c.db.WithContext(ctx), polls[0], viewerID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// CreatePoll attaches a poll to one of authorID's posts.
func (c *Coordinator) CreatePoll(ctx context.Context, authorID int, req models.CreatePollRequest) (Snapshot, error) {
	question := strings.TrimSpace(req.Question)
	options := make([]models.PollOption, 0, len(req.Options))
	for _, text := range req.Options {
		if text = strings.TrimSpace(text); text != "" {
			options = append(options, models.PollOption{Text: text})
		}
	}
	if len(options) < 2 || len(options) > maxOptions {
		return Snapshot{}, fmt.Errorf("%w: need between 2 and %d options", ErrInvalidPoll, maxOptions)
	}
	if !req.ExpiresAt.After(c.now()) {
		return Snapshot{}, fmt.Errorf("%w: expiry must be in the future", ErrInvalidPoll)
	}
	if c.words != nil {
		words := c.words.Words(ctx)
		texts := []string{question}
		for _, o := range options {
			texts = append(texts, o.Text)
		}
		for _, text := range texts {
			if w, ok := moderation.ContainsSensitiveWord(text, words); ok {
				return Snapshot{}, fmt.Errorf("%w: contains sensitive word %q", ErrInvalidPoll, w)
			}
		}
	}

	poll := models.Poll{
		PostID:    req.PostID,
		Question:  question,
		Options:   options,
		ExpiresAt: req.ExpiresAt.UTC(),
	}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, req.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("post %d: %w", req.PostID, store.ErrNotFound)
			}
			return fmt.Errorf("get post: %w", err)
		}
		if post.AuthorID != authorID {
			return ErrNotAuthor
		}

		var existing int64
		if err := tx.Model(&models.Poll{}).Where("post_id = ?", req.PostID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing poll: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: post already has a poll", ErrInvalidPoll)
		}

		if err := tx.Create(&poll).Error; err != nil {
			return fmt.Errorf("create poll: %w", err)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return c.snapshot(c.db.WithContext(ctx), poll, authorID)
}

func (c *Coordinator) snapshot(db *gorm.DB, poll models.Poll, viewerID int) (Snapshot, error) {
	var options []models.PollOption
	if err := db.Where("poll_id = ?", poll.ID).Order("id asc").Find(&options).Error; err != nil {
		return Snapshot{}, fmt.Errorf("list poll options: %w", err)
	}

	selected := 0
	if viewerID != 0 {
		var votes []models.PollVote
		if err := db.Where("poll_id = ? AND user_id = ?", poll.ID, viewerID).Limit(1).Find(&votes).Error; err != nil {
			return Snapshot{}, fmt.Errorf("get viewer vote: %w", err)
		}
		if len(votes) > 0 {
			selected = votes[0].OptionID
		}
	}

	snap := Snapshot{
		ID:        poll.ID,
		PostID:    poll.PostID,
		Question:  poll.Question,
		Options:   make([]OptionSnapshot, 0, len(options)),
		IsVoted:   selected != 0,
		ExpiresAt: poll.ExpiresAt,
		IsExpired: !c.now().Before(poll.ExpiresAt),
	}
	for _, o := range options {
		snap.TotalVotes += o.VoteCount
		snap.Options = append(snap.Options, OptionSnapshot{
			ID:         o.ID,
			Text:       o.Text,
			VoteCount:  o.VoteCount,
			IsSelected: o.ID == selected,
		})
	}
	return snap, nil
}

func voteResult(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, ErrPollExpired):
		return "expired"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
