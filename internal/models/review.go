package models

import (
	"time"

	"gorm.io/datatypes"
)

// Review is a Google Maps review mirrored locally. GoogleReviewID is the
// review's unix timestamp from the Places API, the only stable key it
// exposes; entries without one are skipped during sync.
type Review struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	GoogleReviewID string `gorm:"type:varchar(40);uniqueIndex;not null" json:"google_review_id"`
	PlaceID        string `gorm:"type:varchar(128)" json:"place_id"`

	AuthorName      string `gorm:"type:varchar(264)" json:"author_name"`
	ProfilePhotoURL string `gorm:"type:varchar(512)" json:"profile_photo_url"`
	Rating          int    `json:"rating"`

	OriginalLanguage string `gorm:"type:varchar(10)" json:"original_language"`
	OriginalText     string `gorm:"type:text" json:"original_text"`

	ReviewTimestamp time.Time      `json:"review_timestamp"`
	Raw             datatypes.JSON `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Translations []ReviewTranslation `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"translations,omitempty"`
}

// ReviewTranslation rows are append-only: once a language exists for a
// review, later syncs never touch it.
type ReviewTranslation struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ReviewID       uint   `gorm:"uniqueIndex:idx_review_lang;not null" json:"review_id"`
	Language       string `gorm:"type:varchar(10);uniqueIndex:idx_review_lang;not null" json:"language"`
	TranslatedText string `gorm:"type:text" json:"translated_text"`

	CreatedAt time.Time `json:"created_at"`
}
