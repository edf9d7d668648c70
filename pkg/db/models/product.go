package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is one catalog entry. Prices are per kilo; PiecesPerKilo is the
// yield used to convert between piece counts and weights on order items.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Category      *string   `gorm:"column:category" json:"category,omitempty"`
	Status        *string   `gorm:"column:status" json:"status,omitempty"`
	PricePerKilo  float64   `gorm:"column:price_per_kilo;type:numeric(12,2);not null" json:"price_per_kilo"`
	PiecesPerKilo float64   `gorm:"column:pieces_per_kilo;type:numeric(10,2);not null" json:"pieces_per_kilo"`
	ImageURL      *string   `gorm:"column:image_url" json:"image_url,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
