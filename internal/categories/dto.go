package categories

import (
	"io"
	"time"

	"github.com/google/uuid"

	products "github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

// CategoryDTO is the public category payload.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoriesPageDTO is a paginated category view.
type CategoriesPageDTO struct {
	Items      []CategoryDTO   `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}

// CategoryDetailDTO bundles a category with a page of its products.
type CategoryDetailDTO struct {
	Category CategoryDTO              `json:"category"`
	Products products.ProductsPageDTO `json:"products"`
}

// NewCategoryDTO builds the public payload from the persisted model.
func NewCategoryDTO(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:        category.ID,
		Title:     category.Title,
		Image:     category.Image,
		CreatedAt: category.CreatedAt,
	}
}

// ImageUpload carries the category cover file into the service layer.
type ImageUpload struct {
	Filename string
	File     io.Reader
}

// CreateInput is the admin payload for a new category. The cover image
// arrives separately as a multipart upload.
type CreateInput struct {
	Title string `validate:"required,min=2,max=120"`
}

// UpdateInput carries a partial category edit; nil fields stay untouched.
type UpdateInput struct {
	Title *string `validate:"omitempty,min=2,max=120"`
}
