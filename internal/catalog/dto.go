package catalog

import (
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
)

// CreateProductInput carries a new catalog entry.
type CreateProductInput struct {
	Name          string
	Category      *string
	Status        *string
	PricePerKilo  float64
	PiecesPerKilo float64
	ImageURL      *string
}

// UpdateProductInput patches an existing entry. Changing price or yield only
// affects items created afterwards; existing order items keep their snapshot.
type UpdateProductInput struct {
	Name          *string
	Category      *string
	Status        *string
	PricePerKilo  *float64
	PiecesPerKilo *float64
	ImageURL      *string
}

// ProductList wraps a paginated product page plus the next cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ImportSummary reports the outcome of a CSV bulk import.
type ImportSummary struct {
	Imported int `json:"imported"`
	Cleared  int `json:"cleared"`
	Skipped  int `json:"skipped"`
}
