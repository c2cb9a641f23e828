package model

import (
	"time"

	"gorm.io/gorm"
)

// Session is one issued login token. Expired or soft-deleted sessions are
// rejected by the auth middleware.
type Session struct {
	gorm.Model
	SessionToken string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"session_token"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	ClientIP     string    `gorm:"type:varchar(45)" json:"client_ip"`
	Browser      string    `gorm:"type:varchar(512)" json:"browser"`
}
