package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dish represents a menu entry with its current price
type Dish struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:101;uniqueIndex;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(11,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PopularDish is a dish together with the number of line items referencing it
type PopularDish struct {
	Dish
	OrderCount int64 `json:"order_count"`
}
