package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	products "github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/enums"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

// OrderDTO is the order payload returned to the owning user. TotalPrice is
// the placement-time snapshot, not the product's current price.
type OrderDTO struct {
	ID            uuid.UUID            `json:"id"`
	Product       *products.ProductDTO `json:"product,omitempty"`
	ProductID     uuid.UUID            `json:"product_id"`
	Quantity      int                  `json:"quantity"`
	TotalPrice    decimal.Decimal      `json:"total_price"`
	PaymentMethod string               `json:"payment_method"`
	Address       string               `json:"address"`
	Status        enums.OrderStatus    `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

// OrdersPageDTO is a paginated order history view.
type OrdersPageDTO struct {
	Items      []OrderDTO      `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}

// NewOrderDTO builds the public payload from the persisted model.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID,
		ProductID:     order.ProductID,
		Quantity:      order.Quantity,
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		Address:       order.Address,
		Status:        order.Status,
		CreatedAt:     order.CreatedAt,
	}
	if order.Product != nil {
		product := products.NewProductDTO(order.Product)
		dto.Product = &product
	}
	return dto
}

// PlaceInput carries a purchase request.
type PlaceInput struct {
	ProductID     string `json:"product_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,max=64"`
	Address       string `json:"address" validate:"required,max=255"`
}

// AmendAddressInput changes the delivery address of a pending order.
type AmendAddressInput struct {
	Address string `json:"address" validate:"required,max=255"`
}

// AmendPaymentMethodInput changes the payment method of a pending order.
type AmendPaymentMethodInput struct {
	PaymentMethod string `json:"payment_method" validate:"required,max=64"`
}
