package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierjamel/traiteur-backend/pkg/db"
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/metrics"
	"github.com/atelierjamel/traiteur-backend/pkg/pagination"
)

const defaultTxAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns order CRUD plus the aggregation engine: every item mutation
// runs as one transactional read-modify-write over the order row and its full
// item set, so an order's stored totals always equal the sum over its items.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, params pagination.Params) (*OrderList, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, input UpdateOrderInput) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error

	AddItem(ctx context.Context, orderID uuid.UUID, input ItemInput) (*ItemMutationResult, error)
	UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, patch ItemPatch) (*ItemMutationResult, error)
	DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) (*ItemMutationResult, error)
	RecomputeTotals(ctx context.Context, orderID uuid.UUID) (Totals, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	products   ProductFinder
	txAttempts int
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, products ProductFinder, txAttempts int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if txAttempts <= 0 {
		txAttempts = defaultTxAttempts
	}
	return &service{repo: repo, tx: tx, products: products, txAttempts: txAttempts}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order name required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}

	order := &models.Order{
		Name:            strings.TrimSpace(input.Name),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerAddress: input.CustomerAddress,
		CustomerPhone:   input.CustomerPhone,
		DeliveryDate:    input.DeliveryDate,
		// Totals start at zero; only the aggregation engine writes them.
		TotalPrice:  0,
		TotalWeight: 0,
		TotalPieces: 0,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return created, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListOrders(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) UpdateOrder(ctx context.Context, orderID uuid.UUID, input UpdateOrderInput) (*models.Order, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.CustomerName != nil {
		updates["customer_name"] = strings.TrimSpace(*input.CustomerName)
	}
	if input.CustomerAddress != nil {
		updates["customer_address"] = *input.CustomerAddress
	}
	if input.CustomerPhone != nil {
		updates["customer_phone"] = *input.CustomerPhone
	}
	if input.DeliveryDate != nil {
		updates["delivery_date"] = *input.DeliveryDate
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateOrderFields(ctx, orderID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return s.GetOrder(ctx, orderID)
}

func (s *service) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	// Items go with the order through the FK cascade, so totals can never
	// reference orphaned rows.
	if err := s.repo.DeleteOrder(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, orderID uuid.UUID, input ItemInput) (*ItemMutationResult, error) {
	product, err := s.resolveProduct(ctx, input)
	if err != nil {
		return nil, err
	}

	// Validation happens before any write; the transaction below only runs
	// with a fully derived item.
	item, err := deriveItem(product, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	item.OrderID = orderID

	var result ItemMutationResult
	err = s.runOrderTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.lockOrder(ctx, repo, orderID); err != nil {
			return err
		}

		created, err := repo.CreateItem(ctx, item)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
		}

		if err := s.recomputeLocked(ctx, repo, orderID); err != nil {
			return err
		}

		order, err := s.reload(ctx, repo, orderID)
		if err != nil {
			return err
		}
		result = ItemMutationResult{ItemID: created.ID, Item: created, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderItemMutations.WithLabelValues("add").Inc()
	return &result, nil
}

func (s *service) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, patch ItemPatch) (*ItemMutationResult, error) {
	var result ItemMutationResult
	err := s.runOrderTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.lockOrder(ctx, repo, orderID); err != nil {
			return err
		}

		item, err := s.loadItem(ctx, repo, orderID, itemID)
		if err != nil {
			return err
		}

		// Revision works off the item's stored product snapshot; the live
		// product is never re-fetched, keeping the sold-at price frozen.
		updates, err := reviseItem(item, patch)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}

		if err := repo.UpdateItem(ctx, itemID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
		}

		if err := s.recomputeLocked(ctx, repo, orderID); err != nil {
			return err
		}

		order, err := s.reload(ctx, repo, orderID)
		if err != nil {
			return err
		}
		result = ItemMutationResult{ItemID: item.ID, Item: item, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderItemMutations.WithLabelValues("update").Inc()
	return &result, nil
}

func (s *service) DeleteItem(ctx context.Context, orderID, itemID uuid.UUID) (*ItemMutationResult, error) {
	var result ItemMutationResult
	err := s.runOrderTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.lockOrder(ctx, repo, orderID); err != nil {
			return err
		}

		if _, err := s.loadItem(ctx, repo, orderID, itemID); err != nil {
			return err
		}

		if err := repo.DeleteItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order item")
		}

		if err := s.recomputeLocked(ctx, repo, orderID); err != nil {
			return err
		}

		order, err := s.reload(ctx, repo, orderID)
		if err != nil {
			return err
		}
		result = ItemMutationResult{ItemID: itemID, Order: order}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderItemMutations.WithLabelValues("delete").Inc()
	return &result, nil
}

func (s *service) RecomputeTotals(ctx context.Context, orderID uuid.UUID) (Totals, error) {
	var totals Totals
	err := s.runOrderTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.lockOrder(ctx, repo, orderID); err != nil {
			return err
		}

		items, err := repo.FindItemsByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}

		totals = sumTotals(items)
		if err := repo.UpdateOrderTotals(ctx, orderID, totals); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write order totals")
		}
		return nil
	})
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// runOrderTx executes fn transactionally, re-running the whole unit on store
// conflicts up to the configured attempt cap. Partial reapplication is never
// attempted; each retry re-reads everything.
func (s *service) runOrderTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= s.txAttempts; attempt++ {
		err = s.tx.WithTx(ctx, fn)
		if err == nil || !db.IsSerializationFailure(err) {
			return err
		}
		metrics.OrderTxRetries.Inc()
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order transaction conflicted")
}

func (s *service) resolveProduct(ctx context.Context, input ItemInput) (*models.Product, error) {
	var (
		product *models.Product
		err     error
	)
	switch {
	case input.ProductID != nil && *input.ProductID != uuid.Nil:
		product, err = s.products.FindProduct(ctx, *input.ProductID)
	case input.ProductName != nil && strings.TrimSpace(*input.ProductName) != "":
		product, err = s.products.FindProductByName(ctx, strings.TrimSpace(*input.ProductName))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id or name required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product")
	}
	return product, nil
}

func (s *service) lockOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
	}
	return order, nil
}

func (s *service) loadItem(ctx context.Context, repo Repository, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrItemNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.OrderID != orderID {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrItemNotFound, "order item not found")
	}
	return item, nil
}

// recomputeLocked re-derives the totals from the full current item set and
// persists them. Callers hold the order row lock.
func (s *service) recomputeLocked(ctx context.Context, repo Repository, orderID uuid.UUID) error {
	items, err := repo.FindItemsByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	if err := repo.UpdateOrderTotals(ctx, orderID, sumTotals(items)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write order totals")
	}
	return nil
}

func (s *service) reload(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return order, nil
}
