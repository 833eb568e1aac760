package models

import "time"

// Like - one per user per post
type Like struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    int       `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark - one per user per post
type Bookmark struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_bookmarks_user_post" json:"user_id"`
	PostID    int       `gorm:"not null;uniqueIndex:idx_bookmarks_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
