package models

import (
	"time"

	"github.com/google/uuid"
)

// Translation is a staff-managed translation job record (admin area CRUD).
type Translation struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index" json:"created_by,omitempty"`

	Title          string `gorm:"type:varchar(264)" json:"title"`
	SourceLanguage string `gorm:"type:varchar(10)" json:"source_language"`
	TargetLanguage string `gorm:"type:varchar(10)" json:"target_language"`
	SourceText     string `gorm:"type:text" json:"source_text"`
	TranslatedText string `gorm:"type:text" json:"translated_text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
