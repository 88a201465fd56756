package models

import "time"

// SessionRecord is the persisted form of a Session. Token, role and user id
// are stored sealed; see utils.Sealer.
type SessionRecord struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	SealedToken    string    `gorm:"type:text;not null" json:"sealed_token"`
	SealedRole     string    `gorm:"size:255;not null" json:"sealed_role"`
	SealedUserID   string    `gorm:"size:255;not null" json:"sealed_user_id"`
	ElapsedSeconds int       `gorm:"default:0" json:"elapsed_seconds"`
	ExpiresAt      time.Time `gorm:"index" json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (SessionRecord) TableName() string { return "web_sessions" }
