package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	// duplicate-key violations surface as gorm.ErrDuplicatedKey
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}
