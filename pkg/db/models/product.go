package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a storefront listing.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string          `gorm:"column:title;not null;uniqueIndex"`
	Description string          `gorm:"column:description;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:0;check:quantity >= 0"`
	Images      pq.StringArray  `gorm:"column:images;type:text[];not null"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	AdminID     uuid.UUID       `gorm:"column:admin_id;type:uuid;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
