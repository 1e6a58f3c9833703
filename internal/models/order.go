package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle stage of an order
type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusReady   OrderStatus = "ready"
	StatusPaid    OrderStatus = "paid"
)

// orderTransitions is the single source of truth for legal status changes.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusReady, StatusPaid},
	StatusReady:   {StatusPaid},
	StatusPaid:    {},
}

// ParseOrderStatus converts a raw string into a known OrderStatus
func ParseOrderStatus(value string) (OrderStatus, bool) {
	status := OrderStatus(value)
	if _, ok := orderTransitions[status]; !ok {
		return "", false
	}
	return status, true
}

// OrderStatuses returns every known status in lifecycle order
func OrderStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusReady, StatusPaid}
}

// CanTransitionTo reports whether the status may move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s in one step
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	allowed := orderTransitions[s]
	out := make([]OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether no further transition is possible
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Order is a tab for one table.
//
// TotalPrice is a cache of the sum of Items[].Price. It is rewritten by the
// order service after every line item mutation and must never be edited
// directly; the item set is the source of truth.
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TableNumber int             `gorm:"not null;index" json:"table_number"`
	Status      OrderStatus     `gorm:"size:21;not null;default:'pending';index" json:"status"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(11,2);not null;default:0" json:"total_price"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalItems  int             `gorm:"-" json:"total_items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsPaid reports whether the order is frozen
func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid
}

// OrderItem is one dish/quantity line of an order.
// Price is a snapshot of dish price times quantity taken when the item itself
// was last saved; DishName is captured at the same moment.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	DishID    uint            `gorm:"not null;index" json:"dish_id"`
	Dish      *Dish           `gorm:"constraint:OnDelete:RESTRICT" json:"dish,omitempty"`
	DishName  string          `gorm:"size:101;not null" json:"dish_name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(11,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StatusCount is the number of orders in one status
type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int64       `json:"count"`
}

// OrderStatistics aggregates over all orders. Revenue only counts paid orders.
type OrderStatistics struct {
	TotalOrders    int64           `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	OrdersByStatus []StatusCount   `json:"orders_by_status"`
}
