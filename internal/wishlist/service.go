package wishlist

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	products "github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

const (
	savedMessage   = "Product saved"
	removedMessage = "Product removed from saved"
)

type wishlistRepo interface {
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.SavedProduct, int64, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service owns the save/unsave toggle and the saved-products listing.
type Service interface {
	Toggle(ctx context.Context, userID uuid.UUID, productID string) (*ToggleDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PageDTO, error)
}

// ServiceParams lists the collaborators the wishlist service needs.
type ServiceParams struct {
	Repo     wishlistRepo
	Products productFinder
}

type service struct {
	repo     wishlistRepo
	products productFinder
}

// NewService validates dependencies and constructs the wishlist service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	return &service{repo: params.Repo, products: params.Products}, nil
}

// Toggle saves the product for the user, or removes it when already saved.
func (s *service) Toggle(ctx context.Context, userID uuid.UUID, productID string) (*ToggleDTO, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, pkgErrors.New(pkgErrors.CodeNotFound, "product not found")
	}

	if _, err := s.products.FindByID(ctx, id); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "product not found")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading product")
	}

	saved, err := s.repo.Exists(ctx, userID, id)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking wishlist")
	}

	if saved {
		if err := s.repo.Remove(ctx, userID, id); err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "removing wishlist entry")
		}
		return &ToggleDTO{Saved: false, Message: removedMessage}, nil
	}

	if err := s.repo.Add(ctx, userID, id); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "adding wishlist entry")
	}
	return &ToggleDTO{Saved: true, Message: savedMessage}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PageDTO, error) {
	normalized := pagination.Normalize(params)
	items, total, err := s.repo.ListByUser(ctx, userID, normalized)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "listing wishlist")
	}

	dtos := make([]ItemDTO, 0, len(items))
	for i := range items {
		if items[i].Product == nil {
			continue
		}
		dtos = append(dtos, ItemDTO{
			Product: products.NewProductDTO(items[i].Product),
			SavedAt: items[i].CreatedAt,
		})
	}
	return &PageDTO{Items: dtos, Pagination: pagination.BuildMeta(normalized, total)}, nil
}
