package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	"github.com/atelierjamel/traiteur-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// FindOrderForUpdate locks the order row for the duration of the
	// enclosing transaction, serializing concurrent item mutations per order.
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, params pagination.Params) (*OrderList, error)
	UpdateOrderFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error

	CreateItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	UpdateOrderTotals(ctx context.Context, orderID uuid.UUID, totals Totals) error
}

// ProductFinder resolves products for item creation. Only reads; the orders
// service never writes the catalog.
type ProductFinder interface {
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
}
