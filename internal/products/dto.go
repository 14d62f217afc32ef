package products

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

// CategoryRef is the slim category projection embedded in product payloads.
type CategoryRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// ProductDTO is the public catalog payload.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Images      []string        `json:"images"`
	Category    *CategoryRef    `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductsPageDTO is a paginated catalog view.
type ProductsPageDTO struct {
	Items      []ProductDTO    `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}

// NewProductDTO builds the public payload from the persisted model.
func NewProductDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Images:      []string(product.Images),
		CreatedAt:   product.CreatedAt,
	}
	if product.Category != nil {
		dto.Category = &CategoryRef{ID: product.Category.ID, Title: product.Category.Title}
	}
	return dto
}

// NewProductsPage maps a repo page into the public projection.
func NewProductsPage(items []models.Product, params pagination.Params, total int64) *ProductsPageDTO {
	dtos := make([]ProductDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, NewProductDTO(&items[i]))
	}
	return &ProductsPageDTO{Items: dtos, Pagination: pagination.BuildMeta(params, total)}
}

// ImageUpload carries one multipart file into the service layer.
type ImageUpload struct {
	Filename string
	File     io.Reader
}

// CreateInput is the admin payload for a new listing. Images arrive
// separately as multipart uploads.
type CreateInput struct {
	Title       string          `validate:"required,min=2,max=120"`
	Description string          `validate:"required,max=4000"`
	Price       decimal.Decimal `validate:"required"`
	Quantity    int             `validate:"gte=0"`
	CategoryID  uuid.UUID       `validate:"required"`
}

// UpdateInput carries a partial listing edit; nil fields stay untouched.
type UpdateInput struct {
	Title       *string          `validate:"omitempty,min=2,max=120"`
	Description *string          `validate:"omitempty,max=4000"`
	Price       *decimal.Decimal `validate:"omitempty"`
	Quantity    *int             `validate:"omitempty,gte=0"`
	CategoryID  *uuid.UUID       `validate:"omitempty"`
}
