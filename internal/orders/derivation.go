package orders

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
)

// Sentinel causes for quantity derivation. They travel inside coded errors so
// callers can branch with errors.Is while the HTTP layer keeps its mapping.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("order item not found")
	ErrInvalidQuantity = errors.New("quantity must be a positive piece count or weight")
	ErrInvalidYield    = errors.New("pieces per kilo must be positive")
	ErrInvalidPrice    = errors.New("price per kilo must be positive")
	ErrNoQuantity      = errors.New("no piece count or weight provided")
)

// quantities are the derived fields of one order item: the caller supplies one
// of pieces/weight and the other is computed from the product's yield, then
// the line price from the weight.
type quantities struct {
	Pieces     int
	Weight     float64
	TotalPrice float64
}

// deriveQuantities applies the conversion rules. Pieces, when present and
// positive, drive the weight; otherwise a positive weight drives the piece
// count. Weights and prices round half-up to 2 decimals, piece counts to the
// nearest integer.
func deriveQuantities(unitPrice, piecesPerKilo float64, pieces *int, weight *float64) (quantities, error) {
	if piecesPerKilo <= 0 {
		return quantities{}, ErrInvalidYield
	}
	if unitPrice <= 0 {
		return quantities{}, ErrInvalidPrice
	}

	yield := decimal.NewFromFloat(piecesPerKilo)
	price := decimal.NewFromFloat(unitPrice)

	var q quantities
	switch {
	case pieces != nil && *pieces > 0:
		q.Pieces = *pieces
		w := decimal.NewFromInt(int64(*pieces)).Div(yield).Round(2)
		q.Weight, _ = w.Float64()
	case weight != nil && *weight > 0:
		w := decimal.NewFromFloat(*weight)
		q.Weight = *weight
		q.Pieces = int(w.Mul(yield).Round(0).IntPart())
	default:
		return quantities{}, ErrInvalidQuantity
	}

	total := decimal.NewFromFloat(q.Weight).Mul(price).Round(2)
	q.TotalPrice, _ = total.Float64()
	return q, nil
}

// deriveItem populates a new item from the product snapshot and the supplied
// driving quantity.
func deriveItem(product *models.Product, input ItemInput) (*models.OrderItem, error) {
	q, err := deriveQuantities(product.PricePerKilo, product.PiecesPerKilo, input.Pieces, input.Weight)
	if err != nil {
		return nil, err
	}

	productID := product.ID
	return &models.OrderItem{
		ProductID:     &productID,
		ProductName:   product.Name,
		UnitPrice:     product.PricePerKilo,
		PiecesPerKilo: product.PiecesPerKilo,
		ImageURL:      product.ImageURL,
		Pieces:        q.Pieces,
		Weight:        q.Weight,
		TotalPrice:    q.TotalPrice,
	}, nil
}

// reviseItem recomputes an existing item from a patch. The driving quantity is
// whichever of pieces/weight the patch carries; the stored product snapshot is
// never re-read, so the item keeps the price it was sold at. Returns the
// column updates to persist.
func reviseItem(existing *models.OrderItem, patch ItemPatch) (map[string]any, error) {
	if patch.Pieces == nil && patch.Weight == nil {
		return nil, ErrNoQuantity
	}

	q, err := deriveQuantities(existing.UnitPrice, existing.PiecesPerKilo, patch.Pieces, patch.Weight)
	if err != nil {
		return nil, err
	}

	existing.Pieces = q.Pieces
	existing.Weight = q.Weight
	existing.TotalPrice = q.TotalPrice

	return map[string]any{
		"pieces":      q.Pieces,
		"weight":      q.Weight,
		"total_price": q.TotalPrice,
	}, nil
}

// sumTotals folds the current item set into the order's derived aggregates.
func sumTotals(items []models.OrderItem) Totals {
	price := decimal.Zero
	weight := decimal.Zero
	pieces := 0
	for i := range items {
		price = price.Add(decimal.NewFromFloat(items[i].TotalPrice))
		weight = weight.Add(decimal.NewFromFloat(items[i].Weight))
		pieces += items[i].Pieces
	}

	var t Totals
	t.TotalPrice, _ = price.Round(2).Float64()
	t.TotalWeight, _ = weight.Round(2).Float64()
	t.TotalPieces = pieces
	return t
}
