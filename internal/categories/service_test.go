package categories

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

type stubRepo struct {
	categories map[uuid.UUID]*models.Category
	updates    map[uuid.UUID]map[string]any
	deleted    []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{categories: map[uuid.UUID]*models.Category{}, updates: map[uuid.UUID]map[string]any{}}
}

func (s *stubRepo) add(category *models.Category) *models.Category {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	s.categories[category.ID] = category
	return category
}

func (s *stubRepo) Create(_ context.Context, category *models.Category) (*models.Category, error) {
	return s.add(category), nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	if category, ok := s.categories[id]; ok {
		return category, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByTitle(_ context.Context, title string) (*models.Category, error) {
	for _, category := range s.categories {
		if category.Title == title {
			return category, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(_ context.Context, _ string, _ pagination.Params) ([]models.Category, int64, error) {
	items := make([]models.Category, 0, len(s.categories))
	for _, category := range s.categories {
		items = append(items, *category)
	}
	return items, int64(len(items)), nil
}

func (s *stubRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.updates[id] = fields
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.categories, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubProducts struct {
	byCategory map[uuid.UUID][]models.Product
}

func (s *stubProducts) ListByCategory(_ context.Context, categoryID uuid.UUID, _ pagination.Params) ([]models.Product, int64, error) {
	items := s.byCategory[categoryID]
	return items, int64(len(items)), nil
}

type stubFiles struct {
	saved   []string
	removed []string
}

func (s *stubFiles) Save(originalName string, _ io.Reader) (string, error) {
	path := "/upload/images/" + uuid.NewString() + "-" + originalName
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *stubFiles) Remove(publicPath string) error {
	s.removed = append(s.removed, publicPath)
	return nil
}

type fixture struct {
	svc      Service
	repo     *stubRepo
	products *stubProducts
	files    *stubFiles
	adminID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     newStubRepo(),
		products: &stubProducts{byCategory: map[uuid.UUID][]models.Product{}},
		files:    &stubFiles{},
		adminID:  uuid.New(),
	}
	svc, err := NewService(ServiceParams{Repo: f.repo, Products: f.products, Files: f.files})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	f.svc = svc
	return f
}

func assertCode(t *testing.T, err error, want pkgErrors.Code) {
	t.Helper()

	typed := pkgErrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error with code %s, got %v", want, err)
	}
	if typed.Code() != want {
		t.Fatalf("expected code %s, got %s (%v)", want, typed.Code(), err)
	}
}

func cover() *ImageUpload {
	return &ImageUpload{Filename: "cover.png", File: bytes.NewReader([]byte("img"))}
}

func TestCreateRequiresImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.adminID, CreateInput{Title: "Electronics"}, nil)
	assertCode(t, err, pkgErrors.CodeValidation)
}

func TestCreateRejectsDuplicateTitle(t *testing.T) {
	f := newFixture(t)
	f.repo.add(&models.Category{Title: "Electronics"})

	_, err := f.svc.Create(context.Background(), f.adminID, CreateInput{Title: "Electronics"}, cover())
	assertCode(t, err, pkgErrors.CodeConflict)
}

func TestCreateHappyPath(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Create(context.Background(), f.adminID, CreateInput{Title: "Electronics"}, cover())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if out.Image == "" {
		t.Fatal("expected a stored cover image path")
	}
}

func TestGetBundlesProducts(t *testing.T) {
	f := newFixture(t)
	category := f.repo.add(&models.Category{Title: "Electronics", Image: "/upload/images/c.png"})
	f.products.byCategory[category.ID] = []models.Product{{Title: "Keyboard"}, {Title: "Mouse"}}

	out, err := f.svc.Get(context.Background(), category.ID.String(), pagination.Params{})
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(out.Products.Items) != 2 {
		t.Fatalf("expected 2 products, got %d", len(out.Products.Items))
	}
	if out.Products.Pagination.TotalItems != 2 {
		t.Fatalf("expected total_items=2, got %d", out.Products.Pagination.TotalItems)
	}
}

func TestGetRejectsUnparseableID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "electronics", pagination.Params{})
	assertCode(t, err, pkgErrors.CodeNotFound)
}

func TestUpdateReplacesCover(t *testing.T) {
	f := newFixture(t)
	category := f.repo.add(&models.Category{Title: "Electronics", Image: "/upload/images/old.png"})

	_, err := f.svc.Update(context.Background(), category.ID.String(), UpdateInput{}, cover())
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(f.files.removed) != 1 || f.files.removed[0] != "/upload/images/old.png" {
		t.Fatalf("expected old cover removed, got %v", f.files.removed)
	}
}

func TestDeleteRefusesWhenProductsRemain(t *testing.T) {
	f := newFixture(t)
	category := f.repo.add(&models.Category{Title: "Electronics", Image: "/upload/images/c.png"})
	f.products.byCategory[category.ID] = []models.Product{{Title: "Keyboard"}}

	err := f.svc.Delete(context.Background(), category.ID.String())
	assertCode(t, err, pkgErrors.CodeConflict)
	if len(f.repo.deleted) != 0 {
		t.Fatal("category must not be deleted while products reference it")
	}
}

func TestDeleteHappyPath(t *testing.T) {
	f := newFixture(t)
	category := f.repo.add(&models.Category{Title: "Empty", Image: "/upload/images/c.png"})

	if err := f.svc.Delete(context.Background(), category.ID.String()); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(f.repo.deleted) != 1 {
		t.Fatal("expected category row deleted")
	}
	if len(f.files.removed) != 1 {
		t.Fatal("expected cover image removed")
	}
}
