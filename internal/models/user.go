package models

import "time"

// User is read-only here; accounts are issued by the auth service.
type User struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Avatar    string    `json:"avatar"` // Stores avatar ID (1-6) or URL
	CreatedAt time.Time `json:"created_at"`
}
