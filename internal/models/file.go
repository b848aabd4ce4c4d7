package models

import "time"

// File belongs to exactly one of an order or a message.
type File struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	OrderID   *uint `gorm:"index" json:"order_id,omitempty"`
	MessageID *uint `gorm:"index" json:"message_id,omitempty"`

	ObjectKey string  `gorm:"type:varchar(512);not null" json:"object_key"`
	FileName  string  `gorm:"type:varchar(255)" json:"file_name"`
	FileSize  float64 `json:"file_size"` // megabytes

	CreatedAt time.Time `json:"created_at"`
}

// SizeMB converts an upload's byte count to the stored megabyte value.
func SizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
