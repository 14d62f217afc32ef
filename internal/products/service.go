package products

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/db"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

type productRepo interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByTitle(ctx context.Context, title string) (*models.Product, error)
	List(ctx context.Context, search string, params pagination.Params) ([]models.Product, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type fileStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Remove(publicPath string) error
	RemoveAll(publicPaths []string) error
}

// Service owns catalog reads plus the admin-only listing mutations.
type Service interface {
	List(ctx context.Context, search string, params pagination.Params) (*ProductsPageDTO, error)
	Get(ctx context.Context, id string) (*ProductDTO, error)
	Create(ctx context.Context, adminID uuid.UUID, input CreateInput, uploads []ImageUpload) (*ProductDTO, error)
	Update(ctx context.Context, id string, input UpdateInput, uploads []ImageUpload) (*ProductDTO, error)
	Delete(ctx context.Context, id string) error
}

// ServiceParams lists the collaborators the products service needs.
type ServiceParams struct {
	Repo       productRepo
	Categories categoryFinder
	Files      fileStore
	MaxImages  int
}

type service struct {
	repo       productRepo
	categories categoryFinder
	files      fileStore
	maxImages  int
}

// NewService validates dependencies and constructs the products service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repo is required")
	}
	if params.Categories == nil {
		return nil, fmt.Errorf("category finder is required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store is required")
	}
	maxImages := params.MaxImages
	if maxImages <= 0 {
		maxImages = 4
	}

	return &service{
		repo:       params.Repo,
		categories: params.Categories,
		files:      params.Files,
		maxImages:  maxImages,
	}, nil
}

func (s *service) List(ctx context.Context, search string, params pagination.Params) (*ProductsPageDTO, error) {
	normalized := pagination.Normalize(params)
	items, total, err := s.repo.List(ctx, search, normalized)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "listing products")
	}
	return NewProductsPage(items, normalized, total), nil
}

func (s *service) Get(ctx context.Context, id string) (*ProductDTO, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgErrors.New(pkgErrors.CodeNotFound, "product not found")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "product not found")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading product")
	}

	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, adminID uuid.UUID, input CreateInput, uploads []ImageUpload) (*ProductDTO, error) {
	title := strings.TrimSpace(input.Title)

	if !input.Price.IsPositive() {
		return nil, pkgErrors.New(pkgErrors.CodeValidation, "price must be positive")
	}
	if len(uploads) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeValidation, "at least one product image is required")
	}
	if len(uploads) > s.maxImages {
		return nil, pkgErrors.New(pkgErrors.CodeValidation,
			fmt.Sprintf("at most %d product images are allowed", s.maxImages))
	}

	if _, err := s.repo.FindByTitle(ctx, title); err == nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "a product with this title already exists")
	} else if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking title uniqueness")
	}

	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	paths, err := s.saveUploads(uploads)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Quantity:    input.Quantity,
		Images:      paths,
		CategoryID:  input.CategoryID,
		AdminID:     adminID,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		_ = s.files.RemoveAll(paths)
		if db.IsUniqueViolation(err) {
			return nil, pkgErrors.New(pkgErrors.CodeConflict, "a product with this title already exists")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "creating product")
	}

	dto := NewProductDTO(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput, uploads []ImageUpload) (*ProductDTO, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgErrors.New(pkgErrors.CodeValidation, "invalid product id")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "product not found")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading product")
	}

	fields := map[string]any{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title != product.Title {
			if existing, err := s.repo.FindByTitle(ctx, title); err == nil && existing.ID != productID {
				return nil, pkgErrors.New(pkgErrors.CodeConflict, "a product with this title already exists")
			} else if err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking title uniqueness")
			}
			fields["title"] = title
		}
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgErrors.New(pkgErrors.CodeValidation, "price must be positive")
		}
		fields["price"] = *input.Price
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgErrors.New(pkgErrors.CodeValidation, "quantity cannot be negative")
		}
		fields["quantity"] = *input.Quantity
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *input.CategoryID
	}

	var replaced []string
	if len(uploads) > 0 {
		if len(uploads) > s.maxImages {
			return nil, pkgErrors.New(pkgErrors.CodeValidation,
				fmt.Sprintf("at most %d product images are allowed", s.maxImages))
		}
		paths, err := s.saveUploads(uploads)
		if err != nil {
			return nil, err
		}
		fields["images"] = paths
		replaced = []string(product.Images)
	}

	if len(fields) == 0 {
		dto := NewProductDTO(product)
		return &dto, nil
	}

	if err := s.repo.UpdateFields(ctx, productID, fields); err != nil {
		if newPaths, ok := fields["images"].(pq.StringArray); ok {
			_ = s.files.RemoveAll(newPaths)
		}
		if db.IsUniqueViolation(err) {
			return nil, pkgErrors.New(pkgErrors.CodeConflict, "a product with this title already exists")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating product")
	}

	if len(replaced) > 0 {
		_ = s.files.RemoveAll(replaced)
	}

	updated, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "reloading product")
	}
	dto := NewProductDTO(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return pkgErrors.New(pkgErrors.CodeValidation, "invalid product id")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgErrors.New(pkgErrors.CodeNotFound, "product not found")
		}
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading product")
	}

	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "deleting product")
	}

	// Image files go best-effort; a missing file must not resurrect the row.
	_ = s.files.RemoveAll([]string(product.Images))
	return nil
}

func (s *service) ensureCategory(ctx context.Context, categoryID uuid.UUID) error {
	if categoryID == uuid.Nil {
		return pkgErrors.New(pkgErrors.CodeValidation, "category is required")
	}
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgErrors.New(pkgErrors.CodeValidation, "category not found")
		}
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading category")
	}
	return nil
}

func (s *service) saveUploads(uploads []ImageUpload) (pq.StringArray, error) {
	paths := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		path, err := s.files.Save(upload.Filename, upload.File)
		if err != nil {
			_ = s.files.RemoveAll(paths)
			return nil, pkgErrors.Wrap(pkgErrors.CodeValidation, err, "storing product image")
		}
		paths = append(paths, path)
	}
	return pq.StringArray(paths), nil
}
