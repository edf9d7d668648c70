package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is one line within an order. ProductName, UnitPrice, PiecesPerKilo
// and ImageURL are snapshots taken when the item is created; later product
// edits never rewrite them, so an item keeps the price it was sold at.
type OrderItem struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID     *uuid.UUID `gorm:"column:product_id;type:uuid" json:"product_id,omitempty"`
	ProductName   string     `gorm:"column:product_name;not null" json:"product_name"`
	UnitPrice     float64    `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	PiecesPerKilo float64    `gorm:"column:pieces_per_kilo;type:numeric(10,2);not null" json:"pieces_per_kilo"`
	ImageURL      *string    `gorm:"column:image_url" json:"image_url,omitempty"`
	Pieces        int        `gorm:"column:pieces;not null" json:"pieces"`
	Weight        float64    `gorm:"column:weight;type:numeric(12,2);not null" json:"weight"`
	TotalPrice    float64    `gorm:"column:total_price;type:numeric(12,2);not null" json:"total_price"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
