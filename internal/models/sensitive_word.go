package models

import "time"

// SensitiveWord is an administrator-managed denylist entry, stored lowercased.
type SensitiveWord struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Word      string    `gorm:"uniqueIndex;not null" json:"word"`
	CreatedAt time.Time `json:"created_at"`
}
