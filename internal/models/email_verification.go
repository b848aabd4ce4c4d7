package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VerificationTTL      = 15 * time.Minute
	VerificationAttempts = 3
	VerificationCodeLen  = 6
)

// EmailVerification is the single pending code per user. A fresh row is
// issued on registration and on resend (resend deletes the old one first).
type EmailVerification struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Code     string    `gorm:"type:varchar(10);not null" json:"-"`
	Used     bool      `gorm:"default:false" json:"used"`
	Attempts int       `gorm:"default:3" json:"attempts"`

	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (v *EmailVerification) IsExpired(now time.Time) bool {
	return now.After(v.CreatedAt.Add(VerificationTTL))
}
