package models

import "time"

// Comment is a row of the legacy comment table. New replies are posts with a
// ParentPostID; both are still counted.
type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"not null" json:"body"`
	AuthorID  int       `json:"author_id"`
	User      User      `gorm:"foreignKey:AuthorID" json:"user"`
	PostID    int       `gorm:"index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}
