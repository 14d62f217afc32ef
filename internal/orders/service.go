package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
	"github.com/shoply-app/shoply-backend/pkg/enums"
	pkgErrors "github.com/shoply-app/shoply-backend/pkg/errors"
	"github.com/shoply-app/shoply-backend/pkg/pagination"
)

const outOfStockMessage = "not enough products in stock"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// catalog is the slice of the products repo the order flow needs: a price
// snapshot read and the two atomic stock operations, all tx-scoped.
type catalog interface {
	Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service owns the order lifecycle. Placement and cancellation run inside
// a single transaction with their stock movement; the status machine only
// allows pending→delivered and pending→cancelled.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID, input PlaceInput) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrdersPageDTO, error)
	Cancel(ctx context.Context, userID uuid.UUID, orderID string) (*OrderDTO, error)
	MarkDelivered(ctx context.Context, userID uuid.UUID, orderID string) (*OrderDTO, error)
	AmendAddress(ctx context.Context, userID uuid.UUID, orderID string, input AmendAddressInput) (*OrderDTO, error)
	AmendPaymentMethod(ctx context.Context, userID uuid.UUID, orderID string, input AmendPaymentMethodInput) (*OrderDTO, error)
}

// ServiceParams lists the collaborators the orders service needs.
type ServiceParams struct {
	Repo    Repository
	Catalog catalog
	Tx      txRunner
}

type service struct {
	repo    Repository
	catalog catalog
	tx      txRunner
}

// NewService validates dependencies and constructs the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repo is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}

	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		tx:      params.Tx,
	}, nil
}

func (s *service) Place(ctx context.Context, userID uuid.UUID, input PlaceInput) (*OrderDTO, error) {
	productID, err := uuid.Parse(strings.TrimSpace(input.ProductID))
	if err != nil {
		return nil, pkgErrors.New(pkgErrors.CodeValidation, "invalid product id")
	}
	if input.Quantity <= 0 {
		return nil, pkgErrors.New(pkgErrors.CodeValidation, "quantity must be positive")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.catalog.Find(ctx, tx, productID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgErrors.New(pkgErrors.CodeNotFound, "product not found")
			}
			return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading product")
		}

		reserved, err := s.catalog.Reserve(ctx, tx, productID, input.Quantity)
		if err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "reserving stock")
		}
		if !reserved {
			return pkgErrors.New(pkgErrors.CodeValidation, outOfStockMessage)
		}

		total := product.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))

		created, err := s.repo.WithTx(tx).Create(ctx, &models.Order{
			UserID:        userID,
			ProductID:     productID,
			Quantity:      input.Quantity,
			TotalPrice:    total,
			PaymentMethod: strings.TrimSpace(input.PaymentMethod),
			Address:       strings.TrimSpace(input.Address),
			Status:        enums.OrderStatusPending,
		})
		if err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "creating order")
		}
		created.Product = product
		order = created
		return nil
	})
	if err != nil {
		if typed := pkgErrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "placing order")
	}

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrdersPageDTO, error) {
	normalized := pagination.Normalize(params)
	items, total, err := s.repo.ListByUser(ctx, userID, normalized)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "listing orders")
	}

	dtos := make([]OrderDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, NewOrderDTO(&items[i]))
	}
	return &OrdersPageDTO{Items: dtos, Pagination: pagination.BuildMeta(normalized, total)}, nil
}

// Cancel flips a pending order to cancelled and returns its stock. The
// conditional status update inside the transaction keeps a concurrent
// cancel from releasing the same stock twice.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, orderID string) (*OrderDTO, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadOwned(ctx, repo, id, userID)
		if err != nil {
			return err
		}

		if err := s.transition(ctx, repo, loaded, enums.OrderStatusCancelled); err != nil {
			return err
		}

		if err := s.catalog.Release(ctx, tx, loaded.ProductID, loaded.Quantity); err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "restoring stock")
		}

		order = loaded
		return nil
	})
	if err != nil {
		if typed := pkgErrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "cancelling order")
	}

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) MarkDelivered(ctx context.Context, userID uuid.UUID, orderID string) (*OrderDTO, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOwned(ctx, s.repo, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, s.repo, order, enums.OrderStatusDelivered); err != nil {
		return nil, err
	}

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) AmendAddress(ctx context.Context, userID uuid.UUID, orderID string, input AmendAddressInput) (*OrderDTO, error) {
	return s.amendPending(ctx, userID, orderID, map[string]any{
		"address": strings.TrimSpace(input.Address),
	})
}

func (s *service) AmendPaymentMethod(ctx context.Context, userID uuid.UUID, orderID string, input AmendPaymentMethodInput) (*OrderDTO, error) {
	return s.amendPending(ctx, userID, orderID, map[string]any{
		"payment_method": strings.TrimSpace(input.PaymentMethod),
	})
}

// amendPending rewrites mutable order fields while the order is still pending.
func (s *service) amendPending(ctx context.Context, userID uuid.UUID, orderID string, fields map[string]any) (*OrderDTO, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOwned(ctx, s.repo, id, userID)
	if err != nil {
		return nil, err
	}

	if order.Status != enums.OrderStatusPending {
		return nil, pkgErrors.New(pkgErrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", order.Status))
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating order")
	}

	if address, ok := fields["address"].(string); ok {
		order.Address = address
	}
	if method, ok := fields["payment_method"].(string); ok {
		order.PaymentMethod = method
	}

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, id, userID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.New(pkgErrors.CodeNotFound, "order not found")
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternal, err, "loading order")
	}
	// Other users' orders are indistinguishable from missing ones.
	if order.UserID != userID {
		return nil, pkgErrors.New(pkgErrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// transition applies the status machine through a conditional update so
// concurrent writers cannot both win.
func (s *service) transition(ctx context.Context, repo Repository, order *models.Order, to enums.OrderStatus) error {
	if !order.Status.CanTransition(to) {
		return pkgErrors.New(pkgErrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", order.Status))
	}

	updated, err := repo.UpdateStatus(ctx, order.ID, order.Status, to)
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeInternal, err, "updating order status")
	}
	if !updated {
		return pkgErrors.New(pkgErrors.CodeStateConflict, "order status changed concurrently")
	}

	order.Status = to
	return nil
}

func parseOrderID(orderID string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(orderID))
	if err != nil {
		return uuid.Nil, pkgErrors.New(pkgErrors.CodeNotFound, "order not found")
	}
	return id, nil
}
