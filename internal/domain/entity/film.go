package entity

import (
	"time"

	"gorm.io/gorm"
)

// Film represents a resolved film identity
type Film struct {
	ID        uint
	Title     string
	Year      int // 0 when the source did not supply one
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt
}
