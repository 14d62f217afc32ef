package categories

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	products "github.com/shoply-app/shoply-backend/internal/products"
	"github.com/shoply-app/shoply-backend/pkg/db"
	"github.com/shoply-app/shoply-backend/pkg/db/models"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

type categoryRepo interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindByTitle(ctx context.Context, title string) (*models.Category, error)
	List(ctx context.Context, search string, params pagination.Params) ([]models.Category, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type productLister interface {
	ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) ([]models.Product, int64, error)
}

type fileStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Remove(publicPath string) error
}

// Service owns category reads plus the admin-only mutations. Get bundles
// the category with a page of its products.
type Service interface {
	List(ctx context.Context, search string, params pagination.Params) (*CategoriesPageDTO, error)
	Get(ctx context.Context, id string, productParams pagination.Params) (*CategoryDetailDTO, error)
	Create(ctx context.Context, adminID uuid.UUID, input CreateInput, cover *ImageUpload) (*CategoryDTO, error)
	Update(ctx context.Context, id string, input UpdateInput, cover *ImageUpload) (*CategoryDTO, error)
	Delete(ctx context.Context, id string) error
}

// ServiceParams lists the collaborators the categories service needs.
type ServiceParams struct {
	Repo     categoryRepo
	Products productLister
	Files    fileStore
}

type service struct {
	repo     categoryRepo
	products productLister
	files    fileStore
}

// NewService validates dependencies and constructs the categories service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("category repo is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lister is required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store is required")
	}

	return &service{
		repo:     params.Repo,
		products: params.Products,
		files:    params.Files,
	}, nil
}

func (s *service) List(ctx context.Context, search string, params pagination.Params) (*CategoriesPageDTO, error) {
	normalized := pagination.Normalize(params)
	items, total, err := s.repo.List(ctx, search, normalized)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "listing categories")
	}

	dtos := make([]CategoryDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, NewCategoryDTO(&items[i]))
	}
	return &CategoriesPageDTO{Items: dtos, Pagination: pagination.BuildMeta(normalized, total)}, nil
}

func (s *service) Get(ctx context.Context, id string, productParams pagination.Params) (*CategoryDetailDTO, error) {
	category, err := s.load(ctx, id, pkgErrors.CodeNotFound)
	if err != nil {
		return nil, err
	}

	normalized := pagination.Normalize(productParams)
	items, total, err := s.products.ListByCategory(ctx, category.ID, normalized)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "listing category products")
	}

	return &CategoryDetailDTO{
		Category: NewCategoryDTO(category),
		Products: *products.NewProductsPage(items, normalized, total),
	}, nil
}

func (s *service) Create(ctx context.Context, adminID uuid.UUID, input CreateInput, cover *ImageUpload) (*CategoryDTO, error) {
	title := strings.TrimSpace(input.Title)

	if cover == nil {
		return nil, pkgErrors.New(pkgErrors.CodeValidation, "a category image is required")
	}

	if _, err := s.repo.FindByTitle(ctx, title); err == nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "a category with this title already exists")
	} else if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking title uniqueness")
	}

	path, err := s.files.Save(cover.Filename, cover.File)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeValidation, err, "storing category image")
	}

	created, err := s.repo.Create(ctx, &models.Category{
		Title:   title,
		Image:   path,
		AdminID: adminID,
	})
	if err != nil {
		_ = s.files.Remove(path)
		if db.IsUniqueViolation(err) {
			return nil, pkgErrors.New(pkgErrors.CodeConflict, "a category with this title already exists")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "creating category")
	}

	dto := NewCategoryDTO(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput, cover *ImageUpload) (*CategoryDTO, error) {
	category, err := s.load(ctx, id, pkgErrors.CodeValidation)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title != category.Title {
			if existing, err := s.repo.FindByTitle(ctx, title); err == nil && existing.ID != category.ID {
				return nil, pkgErrors.New(pkgErrors.CodeConflict, "a category with this title already exists")
			} else if err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking title uniqueness")
			}
			fields["title"] = title
			category.Title = title
		}
	}

	var replaced string
	if cover != nil {
		path, err := s.files.Save(cover.Filename, cover.File)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeValidation, err, "storing category image")
		}
		fields["image"] = path
		replaced = category.Image
		category.Image = path
	}

	if len(fields) == 0 {
		dto := NewCategoryDTO(category)
		return &dto, nil
	}

	if err := s.repo.UpdateFields(ctx, category.ID, fields); err != nil {
		if path, ok := fields["image"].(string); ok {
			_ = s.files.Remove(path)
		}
		if db.IsUniqueViolation(err) {
			return nil, pkgErrors.New(pkgErrors.CodeConflict, "a category with this title already exists")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating category")
	}

	if replaced != "" {
		_ = s.files.Remove(replaced)
	}

	dto := NewCategoryDTO(category)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	category, err := s.load(ctx, id, pkgErrors.CodeValidation)
	if err != nil {
		return err
	}

	// One cheap existence probe; products keep a NOT NULL FK to categories.
	if _, total, err := s.products.ListByCategory(ctx, category.ID, pagination.Params{Page: 1, Limit: 1}); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "checking category products")
	} else if total > 0 {
		return pkgErrors.New(pkgErrors.CodeConflict, "category still has products")
	}

	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "deleting category")
	}

	_ = s.files.Remove(category.Image)
	return nil
}

func (s *service) load(ctx context.Context, id string, badIDCode pkgErrors.Code) (*models.Category, error) {
	categoryID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		if badIDCode == pkgErrors.CodeNotFound {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "category not found")
		}
		return nil, pkgErrors.New(badIDCode, "invalid category id")
	}

	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "category not found")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading category")
	}
	return category, nil
}
