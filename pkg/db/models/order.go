package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is a customer purchase record. TotalPrice, TotalWeight and TotalPieces
// are derived from the item set and are written only by the orders service;
// callers own the rest of the fields.
type Order struct {
	ID              uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string      `gorm:"column:name;not null" json:"name"`
	CustomerName    string      `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerAddress *string     `gorm:"column:customer_address" json:"customer_address,omitempty"`
	CustomerPhone   *string     `gorm:"column:customer_phone" json:"customer_phone,omitempty"`
	DeliveryDate    *time.Time  `gorm:"column:delivery_date" json:"delivery_date,omitempty"`
	TotalPrice      float64     `gorm:"column:total_price;type:numeric(12,2);not null;default:0" json:"total_price"`
	TotalWeight     float64     `gorm:"column:total_weight;type:numeric(12,2);not null;default:0" json:"total_weight"`
	TotalPieces     int         `gorm:"column:total_pieces;not null;default:0" json:"total_pieces"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
