package wishlist

import (
	"time"

	products "github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

// ToggleDTO reports the wishlist state after a toggle.
type ToggleDTO struct {
	Saved   bool   `json:"saved"`
	Message string `json:"message"`
}

// ItemDTO is one saved product with the time it was saved.
type ItemDTO struct {
	Product products.ProductDTO `json:"product"`
	SavedAt time.Time           `json:"saved_at"`
}

// PageDTO is a paginated wishlist view.
type PageDTO struct {
	Items      []ItemDTO       `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}
