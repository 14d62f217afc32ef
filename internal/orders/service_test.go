package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/enums"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

type stubRepo struct {
	orders  map[uuid.UUID]*models.Order
	updates map[uuid.UUID]map[string]any
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[uuid.UUID]*models.Order{}, updates: map[uuid.UUID]map[string]any{}}
}

func (s *stubRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListByUser(_ context.Context, userID uuid.UUID, _ pagination.Params) ([]models.Order, int64, error) {
	var items []models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			items = append(items, *order)
		}
	}
	return items, int64(len(items)), nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	order, ok := s.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	return true, nil
}

func (s *stubRepo) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.updates[id] = fields
	return nil
}

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubCatalog) add(price int64, quantity int) *models.Product {
	product := &models.Product{
		ID:       uuid.New(),
		Title:    "Keyboard",
		Price:    decimal.NewFromInt(price),
		Quantity: quantity,
	}
	s.products[product.ID] = product
	return product
}

func (s *stubCatalog) Find(_ context.Context, _ *gorm.DB, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) Reserve(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	product, ok := s.products[productID]
	if !ok || product.Quantity < qty {
		return false, nil
	}
	product.Quantity -= qty
	return true, nil
}

func (s *stubCatalog) Release(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) error {
	if product, ok := s.products[productID]; ok {
		product.Quantity += qty
	}
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc     Service
	repo    *stubRepo
	catalog *stubCatalog
	userID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:    newStubRepo(),
		catalog: newStubCatalog(),
		userID:  uuid.New(),
	}
	svc, err := NewService(ServiceParams{Repo: f.repo, Catalog: f.catalog, Tx: stubTx{}})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) place(t *testing.T, product *models.Product, qty int) *OrderDTO {
	t.Helper()

	out, err := f.svc.Place(context.Background(), f.userID, PlaceInput{
		ProductID:     product.ID.String(),
		Quantity:      qty,
		PaymentMethod: "card",
		Address:       "1 Main St",
	})
	if err != nil {
		t.Fatalf("Place returned error: %v", err)
	}
	return out
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

func TestPlaceSnapshotsTotalAndReservesStock(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)

	out := f.place(t, product, 3)

	if out.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", out.Status)
	}
	if !out.TotalPrice.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected total 75, got %s", out.TotalPrice)
	}
	if product.Quantity != 7 {
		t.Fatalf("expected stock 7 after reserve, got %d", product.Quantity)
	}
}

func TestPlaceTotalSurvivesLaterPriceChange(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)

	out := f.place(t, product, 2)
	product.Price = decimal.NewFromInt(99)

	stored, err := f.repo.FindByID(context.Background(), out.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if !stored.TotalPrice.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("total must stay at the placement-time snapshot, got %s", stored.TotalPrice)
	}
}

func TestPlaceInsufficientStock(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 2)

	_, err := f.svc.Place(context.Background(), f.userID, PlaceInput{
		ProductID:     product.ID.String(),
		Quantity:      3,
		PaymentMethod: "card",
		Address:       "1 Main St",
	})
	assertCode(t, err, pkgErrors.CodeValidation)
	if len(f.repo.orders) != 0 {
		t.Fatal("no order may exist when the reserve failed")
	}
	if product.Quantity != 2 {
		t.Fatalf("stock must be untouched, got %d", product.Quantity)
	}
}

func TestPlaceUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Place(context.Background(), f.userID, PlaceInput{
		ProductID:     uuid.NewString(),
		Quantity:      1,
		PaymentMethod: "card",
		Address:       "1 Main St",
	})
	assertCode(t, err, pkgErrors.CodeNotFound)
}

func TestPlaceUnparseableProductID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Place(context.Background(), f.userID, PlaceInput{
		ProductID:     "42",
		Quantity:      1,
		PaymentMethod: "card",
		Address:       "1 Main St",
	})
	assertCode(t, err, pkgErrors.CodeValidation)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 4)

	cancelled, err := f.svc.Cancel(context.Background(), f.userID, out.ID.String())
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if product.Quantity != 10 {
		t.Fatalf("expected stock restored to 10, got %d", product.Quantity)
	}
}

func TestCancelByNonOwner(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 1)

	_, err := f.svc.Cancel(context.Background(), uuid.New(), out.ID.String())
	assertCode(t, err, pkgErrors.CodeNotFound)
}

func TestCancelDeliveredOrder(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 2)

	if _, err := f.svc.MarkDelivered(context.Background(), f.userID, out.ID.String()); err != nil {
		t.Fatalf("MarkDelivered returned error: %v", err)
	}

	_, err := f.svc.Cancel(context.Background(), f.userID, out.ID.String())
	assertCode(t, err, pkgErrors.CodeStateConflict)
	if product.Quantity != 8 {
		t.Fatalf("stock must not move for a delivered order, got %d", product.Quantity)
	}
}

func TestCancelTwiceReleasesStockOnce(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 4)

	if _, err := f.svc.Cancel(context.Background(), f.userID, out.ID.String()); err != nil {
		t.Fatalf("first Cancel returned error: %v", err)
	}
	_, err := f.svc.Cancel(context.Background(), f.userID, out.ID.String())
	assertCode(t, err, pkgErrors.CodeStateConflict)
	if product.Quantity != 10 {
		t.Fatalf("second cancel must not release again, got %d", product.Quantity)
	}
}

func TestMarkDeliveredTwice(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 1)

	if _, err := f.svc.MarkDelivered(context.Background(), f.userID, out.ID.String()); err != nil {
		t.Fatalf("MarkDelivered returned error: %v", err)
	}
	_, err := f.svc.MarkDelivered(context.Background(), f.userID, out.ID.String())
	assertCode(t, err, pkgErrors.CodeStateConflict)
}

func TestAmendAddressOnPendingOrder(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 1)

	amended, err := f.svc.AmendAddress(context.Background(), f.userID, out.ID.String(), AmendAddressInput{Address: "2 Side St"})
	if err != nil {
		t.Fatalf("AmendAddress returned error: %v", err)
	}
	if amended.Address != "2 Side St" {
		t.Fatalf("expected updated address, got %s", amended.Address)
	}
}

func TestAmendAddressAfterCancel(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 1)

	if _, err := f.svc.Cancel(context.Background(), f.userID, out.ID.String()); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	_, err := f.svc.AmendAddress(context.Background(), f.userID, out.ID.String(), AmendAddressInput{Address: "2 Side St"})
	assertCode(t, err, pkgErrors.CodeStateConflict)
}

func TestAmendPaymentMethodByNonOwner(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	out := f.place(t, product, 1)

	_, err := f.svc.AmendPaymentMethod(context.Background(), uuid.New(), out.ID.String(), AmendPaymentMethodInput{PaymentMethod: "cash"})
	assertCode(t, err, pkgErrors.CodeNotFound)
}

func TestListMineOnlyOwnOrders(t *testing.T) {
	f := newFixture(t)
	product := f.catalog.add(25, 10)
	f.place(t, product, 1)

	other := uuid.New()
	_, err := f.svc.Place(context.Background(), other, PlaceInput{
		ProductID:     product.ID.String(),
		Quantity:      1,
		PaymentMethod: "card",
		Address:       "9 Other St",
	})
	if err != nil {
		t.Fatalf("Place returned error: %v", err)
	}

	page, err := f.svc.ListMine(context.Background(), f.userID, pagination.Params{})
	if err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected only the caller's order, got %d", len(page.Items))
	}
}
