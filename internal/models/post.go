package models

import "time"

// Post is a single feed entry. ParentPostID is the direct reply target and
// ThreadRootID the writer-maintained pointer to the top of the thread; neither
// is trusted for consistency at read time.
type Post struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	AuthorID     int       `gorm:"not null;index:idx_posts_author_created,priority:1;index:idx_posts_thread_root_author,priority:2" json:"author_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	ParentPostID *int      `gorm:"index" json:"parent_post_id,omitempty"`
	ThreadRootID *int      `gorm:"index:idx_posts_thread_root_author,priority:1" json:"thread_root_id,omitempty"`
	IsAnonymous  bool      `gorm:"default:false" json:"is_anonymous"`
	IsCensored   bool      `gorm:"default:false" json:"is_censored"`
	MediaURL     string    `json:"media_url,omitempty"`
	LinkURL      string    `json:"link_url,omitempty"`
	CreatedAt    time.Time `gorm:"index:idx_posts_author_created,priority:2" json:"created_at"`
}

type CreatePostRequest struct {
	Content      string `json:"content" binding:"required"`
	ParentPostID *int   `json:"parent_post_id,omitempty"`
	QuotedPostID *int   `json:"quoted_post_id,omitempty"`
	IsAnonymous  bool   `json:"is_anonymous"`
	MediaURL     string `json:"media_url"`
	LinkURL      string `json:"link_url"`
}
