package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

// Repository exposes catalog persistence plus the atomic stock operations
// the order flow relies on.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a products repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product with its category preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByTitle loads a product by its unique title.
func (r *Repository) FindByTitle(ctx context.Context, title string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("title = ?", strings.TrimSpace(title)).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns a page of products matching the optional search term,
// case-insensitive over title and description, newest first.
func (r *Repository) List(ctx context.Context, search string, params pagination.Params) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	query = applySearch(query, search)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	err := query.
		Preload("Category").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByCategory returns a page of products belonging to a category.
func (r *Repository) ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", categoryID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateFields applies a partial column update to the product row.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes the product row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// Find loads a product inside the caller's transaction. Used by the order
// flow to snapshot the current price.
func (r *Repository) Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var product models.Product
	if err := db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Reserve atomically decrements stock. The conditional WHERE keeps the
// quantity from going negative under concurrent purchases; the returned
// bool is false when stock was insufficient.
func (r *Repository) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	res := db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release returns previously reserved stock, used when an order is cancelled.
func (r *Repository) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty)).Error
}

func applySearch(query *gorm.DB, search string) *gorm.DB {
	term := strings.TrimSpace(search)
	if term == "" {
		return query
	}
	like := "%" + strings.ToLower(term) + "%"
	return query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
}
