package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoply-app/shoply-backend/pkg/enums"
)

// Order captures a purchase at placement time. TotalPrice is a snapshot
// of price*quantity; later product price edits never change it.
// Orders are never hard-deleted.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID     uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	Product       *Product          `gorm:"foreignKey:ProductID"`
	Quantity      int               `gorm:"column:quantity;not null;check:quantity > 0"`
	TotalPrice    decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	PaymentMethod string            `gorm:"column:payment_method;not null"`
	Address       string            `gorm:"column:address;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:pending"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
