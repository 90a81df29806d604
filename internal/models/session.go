package models

import "time"

// Session is one authenticated device. It holds the hash of the session's
// current refresh token; rotation replaces the hash and pushes ExpiresAt
// forward. A session whose ExpiresAt has passed is dead even if the row
// still exists.
type Session struct {
	ID               string    `gorm:"primaryKey;size:36" json:"session_id"`
	UserID           string    `gorm:"index;size:36;not null" json:"-"`
	RefreshTokenHash string    `gorm:"size:255;not null" json:"-"`
	UserAgent        string    `gorm:"size:255" json:"user_agent"`
	IP               string    `gorm:"size:64" json:"ip"`
	DeviceName       string    `gorm:"size:100" json:"device_name,omitempty"`
	CreatedAt        time.Time `json:"login_time"`
	ExpiresAt        time.Time `gorm:"index;not null" json:"expires_at"`
}

func (Session) TableName() string { return "sessions" }

// Expired reports whether the session is past its absolute expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
