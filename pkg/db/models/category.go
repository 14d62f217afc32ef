package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for browsing.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string    `gorm:"column:title;not null;uniqueIndex"`
	Image     string    `gorm:"column:image;not null"`
	AdminID   uuid.UUID `gorm:"column:admin_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
