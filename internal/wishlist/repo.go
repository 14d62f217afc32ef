package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

// Repository exposes wishlist persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether the (user, product) pair is already saved.
func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SavedProduct{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add saves the pair. The ON CONFLICT clause makes a racing double-toggle
// land on a single row instead of a unique violation.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	entry := models.SavedProduct{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&entry).Error
}

// Remove deletes the pair if present.
func (r *Repository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.SavedProduct{}).Error
}

// ListByUser returns a page of saved products, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.SavedProduct, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SavedProduct{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.SavedProduct
	err := query.
		Preload("Product").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
