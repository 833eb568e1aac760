package models

import "time"

// Quote records that AuthorID quote-reposted QuotedPostID. It is written next
// to a regular Post carrying the same author, content and timestamp, but the
// two rows share no key.
type Quote struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	AuthorID     int       `gorm:"not null;index:idx_quotes_author_created,priority:1" json:"author_id"`
	Content      string    `gorm:"type:text" json:"content"`
	QuotedPostID int       `gorm:"not null;index" json:"quoted_post_id"`
	CreatedAt    time.Time `gorm:"index:idx_quotes_author_created,priority:2" json:"created_at"`
}
