package orders

import (
	"errors"
	"testing"

	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestDeriveQuantitiesPiecesDriveWeight(t *testing.T) {
	q, err := deriveQuantities(24.0, 20.0, intPtr(50), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Pieces != 50 {
		t.Fatalf("expected 50 pieces, got %d", q.Pieces)
	}
	if q.Weight != 2.5 {
		t.Fatalf("expected weight 2.5, got %v", q.Weight)
	}
	if q.TotalPrice != 60.0 {
		t.Fatalf("expected total 60.0, got %v", q.TotalPrice)
	}
}

func TestDeriveQuantitiesWeightDrivesPieces(t *testing.T) {
	q, err := deriveQuantities(24.0, 20.0, nil, floatPtr(1.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Pieces != 30 {
		t.Fatalf("expected 30 pieces, got %d", q.Pieces)
	}
	if q.Weight != 1.5 {
		t.Fatalf("expected weight 1.5, got %v", q.Weight)
	}
	if q.TotalPrice != 36.0 {
		t.Fatalf("expected total 36.0, got %v", q.TotalPrice)
	}
}

func TestDeriveQuantitiesPiecesWinOverWeight(t *testing.T) {
	// When both are present the piece count drives; the supplied weight is
	// discarded and recomputed.
	q, err := deriveQuantities(10.0, 10.0, intPtr(5), floatPtr(99.0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Weight != 0.5 {
		t.Fatalf("expected derived weight 0.5, got %v", q.Weight)
	}
}

func TestDeriveQuantitiesRounding(t *testing.T) {
	// 7 pieces at 3 per kilo: 2.333... rounds to 2.33.
	q, err := deriveQuantities(10.0, 3.0, intPtr(7), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Weight != 2.33 {
		t.Fatalf("expected weight 2.33, got %v", q.Weight)
	}
	if q.TotalPrice != 23.3 {
		t.Fatalf("expected total 23.3, got %v", q.TotalPrice)
	}

	// 0.25 kg at 10 per kilo: 2.5 pieces rounds to 3 (half up).
	q, err = deriveQuantities(10.0, 10.0, nil, floatPtr(0.25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Pieces != 3 {
		t.Fatalf("expected 3 pieces, got %d", q.Pieces)
	}
}

func TestDeriveQuantitiesGuards(t *testing.T) {
	cases := []struct {
		name   string
		price  float64
		yield  float64
		pieces *int
		weight *float64
		want   error
	}{
		{"zeroYield", 10.0, 0, intPtr(5), nil, ErrInvalidYield},
		{"negativeYield", 10.0, -2, intPtr(5), nil, ErrInvalidYield},
		{"zeroPrice", 0, 10.0, intPtr(5), nil, ErrInvalidPrice},
		{"noQuantity", 10.0, 10.0, nil, nil, ErrInvalidQuantity},
		{"zeroPieces", 10.0, 10.0, intPtr(0), nil, ErrInvalidQuantity},
		{"zeroWeight", 10.0, 10.0, nil, floatPtr(0), ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := deriveQuantities(tc.price, tc.yield, tc.pieces, tc.weight)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeriveItemSnapshotsProduct(t *testing.T) {
	product := &models.Product{
		Name:          "Cigare au miel",
		PricePerKilo:  30.0,
		PiecesPerKilo: 40.0,
		ImageURL:      strPtr("https://storage.googleapis.com/bucket/data/product/images/cigare.jpeg"),
	}

	item, err := deriveItem(product, ItemInput{Pieces: intPtr(80)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ProductName != product.Name {
		t.Fatalf("expected snapshot name %q, got %q", product.Name, item.ProductName)
	}
	if item.UnitPrice != 30.0 || item.PiecesPerKilo != 40.0 {
		t.Fatalf("expected snapshot price/yield 30/40, got %v/%v", item.UnitPrice, item.PiecesPerKilo)
	}
	if item.ImageURL == nil || *item.ImageURL != *product.ImageURL {
		t.Fatalf("expected snapshot image url")
	}
	if item.Weight != 2.0 || item.TotalPrice != 60.0 {
		t.Fatalf("expected weight 2.0 and total 60.0, got %v/%v", item.Weight, item.TotalPrice)
	}
}

func TestReviseItemUsesStoredSnapshot(t *testing.T) {
	item := &models.OrderItem{
		UnitPrice:     20.0,
		PiecesPerKilo: 10.0,
		Pieces:        10,
		Weight:        1.0,
		TotalPrice:    20.0,
	}

	updates, err := reviseItem(item, ItemPatch{Pieces: intPtr(20)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.Pieces != 20 || item.Weight != 2.0 || item.TotalPrice != 40.0 {
		t.Fatalf("unexpected revised item: %+v", item)
	}
	if updates["pieces"] != 20 || updates["weight"] != 2.0 || updates["total_price"] != 40.0 {
		t.Fatalf("unexpected updates map: %v", updates)
	}
}

func TestReviseItemRequiresAQuantity(t *testing.T) {
	item := &models.OrderItem{UnitPrice: 20.0, PiecesPerKilo: 10.0}
	if _, err := reviseItem(item, ItemPatch{}); !errors.Is(err, ErrNoQuantity) {
		t.Fatalf("expected ErrNoQuantity, got %v", err)
	}
}

func TestQuantityRoundTripStays(t *testing.T) {
	// Deriving from pieces and re-deriving from the resulting weight must give
	// back the same pieces once counts are whole at the stored precision.
	q, err := deriveQuantities(24.0, 20.0, intPtr(50), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := deriveQuantities(24.0, 20.0, nil, floatPtr(q.Weight))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Pieces != 50 {
		t.Fatalf("expected round trip to give 50 pieces, got %d", back.Pieces)
	}
}

func TestSumTotals(t *testing.T) {
	items := []models.OrderItem{
		{Pieces: 10, Weight: 0.5, TotalPrice: 12.5},
		{Pieces: 30, Weight: 1.5, TotalPrice: 36.0},
		{Pieces: 7, Weight: 2.33, TotalPrice: 23.3},
	}
	totals := sumTotals(items)
	if totals.TotalPieces != 47 {
		t.Fatalf("expected 47 pieces, got %d", totals.TotalPieces)
	}
	if totals.TotalWeight != 4.33 {
		t.Fatalf("expected weight 4.33, got %v", totals.TotalWeight)
	}
	if totals.TotalPrice != 71.8 {
		t.Fatalf("expected price 71.8, got %v", totals.TotalPrice)
	}
}

func TestSumTotalsEmpty(t *testing.T) {
	totals := sumTotals(nil)
	if totals.TotalPrice != 0 || totals.TotalWeight != 0 || totals.TotalPieces != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}
