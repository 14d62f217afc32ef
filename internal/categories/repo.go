package categories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

// Repository exposes category persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a categories repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new category.
func (r *Repository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindByID loads a category by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByTitle loads a category by its unique title.
func (r *Repository) FindByTitle(ctx context.Context, title string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("title = ?", strings.TrimSpace(title)).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns a page of categories matching the optional search term.
func (r *Repository) List(ctx context.Context, search string, params pagination.Params) ([]models.Category, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if term := strings.TrimSpace(search); term != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Category
	err := query.
		Order("title ASC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateFields applies a partial column update to the category row.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes the category row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}
