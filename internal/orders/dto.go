package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
)

// CreateOrderInput carries the caller-owned fields of a new order. Totals
// always start at zero regardless of what the caller sends.
type CreateOrderInput struct {
	Name            string
	CustomerName    string
	CustomerAddress *string
	CustomerPhone   *string
	DeliveryDate    *time.Time
}

// UpdateOrderInput patches caller-owned fields; derived totals are not
// reachable through it.
type UpdateOrderInput struct {
	Name            *string
	CustomerName    *string
	CustomerAddress *string
	CustomerPhone   *string
	DeliveryDate    *time.Time
}

// ItemInput identifies a product (by id or name, as the import flow only
// knows names) and one driving quantity.
type ItemInput struct {
	ProductID   *uuid.UUID
	ProductName *string
	Pieces      *int
	Weight      *float64
}

// ItemPatch revises an item's driving quantity.
type ItemPatch struct {
	Pieces *int
	Weight *float64
}

// Totals are the order's derived aggregate fields.
type Totals struct {
	TotalPrice  float64 `json:"total_price"`
	TotalWeight float64 `json:"total_weight"`
	TotalPieces int     `json:"total_pieces"`
}

// ItemMutationResult pairs the touched item with the order view reloaded in
// the same transaction, so callers never observe totals that disagree with
// the item set.
type ItemMutationResult struct {
	ItemID uuid.UUID     `json:"item_id"`
	Item   *models.OrderItem `json:"item,omitempty"`
	Order  *models.Order `json:"order"`
}

// OrderList wraps a paginated order page plus the next cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
