package models

import "time"

type Poll struct {
	ID        int          `gorm:"primaryKey" json:"id"`
	PostID    int          `gorm:"index" json:"post_id"`
	Question  string       `json:"question"`
	Options   []PollOption `gorm:"foreignKey:PollID" json:"options"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
}

// PollOption.VoteCount is derived from PollVote rows and only ever incremented
// by the vote coordinator.
type PollOption struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	PollID    int    `gorm:"not null;index" json:"poll_id"`
	Text      string `gorm:"not null" json:"text"`
	VoteCount int    `gorm:"not null;default:0" json:"vote_count"`
}

// PollVote - at most one per (poll, user)
type PollVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	PollID    int       `gorm:"not null;uniqueIndex:idx_poll_votes_poll_user" json:"poll_id"`
	OptionID  int       `gorm:"not null;index" json:"option_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_poll_votes_poll_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreatePollRequest struct {
	PostID    int       `json:"post_id" binding:"required"`
	Question  string    `json:"question"`
	Options   []string  `json:"options" binding:"required"`
	ExpiresAt time.Time `json:"expires_at" binding:"required"`
}

type CastVoteRequest struct {
	OptionID int `json:"option_id" binding:"required"`
}
