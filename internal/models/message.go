package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a directed customer<->staff message. The uint primary key is
// what the conversation listing partitions on: the newest message per
// partner is the one with the highest id.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;index;not null" json:"receiver_id"`
	Message    string    `gorm:"type:varchar(1000);not null" json:"message"`
	Viewed     bool      `gorm:"default:false" json:"viewed"`
	CreatedAt  time.Time `json:"timestamp"`

	Sender   *User  `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Receiver *User  `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
	Files    []File `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// Partner returns the other participant from the given user's perspective.
func (m *Message) Partner(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

const MaxMessageLen = 1000
