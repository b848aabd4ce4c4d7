package models

import "time"

// RequestObject is a support inquiry submitted from the contact form.
type RequestObject struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(264)" json:"name"`
	Email       string `gorm:"type:varchar(264)" json:"email"`
	PhoneNumber string `gorm:"type:varchar(12)" json:"phone_number"`
	Message     string `gorm:"type:varchar(1000)" json:"message"`
	IsNew       bool   `gorm:"default:true" json:"is_new"`

	CreatedAt time.Time `json:"timestamp"`

	Answers []RequestAnswer `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// Notifiable reports whether the requester left enough contact data for
// receipt/answer emails. Missing data skips the email silently.
func (r *RequestObject) Notifiable() bool {
	return r.Email != "" && r.Name != ""
}

type RequestAnswer struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	RequestID uint   `gorm:"index;not null" json:"request"`
	Text      string `gorm:"type:varchar(2000);not null" json:"text"`

	CreatedAt time.Time `json:"timestamp"`
}
