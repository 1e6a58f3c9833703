package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minTableNumber = 1
	maxTableNumber = 100
)

// ItemInput is one requested (dish, quantity) line
type ItemInput struct {
	DishID   uint `json:"dish"`
	Quantity int  `json:"quantity"`
}

// OrderFilter narrows and sorts ListOrders
type OrderFilter struct {
	TableNumber *int
	Status      models.OrderStatus
	// SortDesc orders by status descending instead of ascending
	SortDesc bool
}

// UpdateOrderInput describes an edit of an unpaid order.
// A nil Items keeps the current line items; a non-nil Items replaces them.
type UpdateOrderInput struct {
	TableNumber *int
	Items       []ItemInput
}

// OrderService owns orders, their line items and the cached order total
type OrderService interface {
	// CreateOrder persists an order together with its items, or nothing
	CreateOrder(ctx context.Context, tableNumber int, items []ItemInput) (*models.Order, error)
	// GetOrder retrieves an order with its items and their dishes
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	// ListOrders retrieves orders matching the filter
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateOrder changes the table number and/or replaces the items of an unpaid order
	UpdateOrder(ctx context.Context, id uint, input UpdateOrderInput) (*models.Order, error)
	// DeleteOrder removes an unpaid order and its items
	DeleteOrder(ctx context.Context, id uint) error
	// SetStatus moves an order along the status lifecycle
	SetStatus(ctx context.Context, id uint, status string) (*models.Order, error)
	// RecalculateTotal rewrites the cached total from the current item set
	RecalculateTotal(ctx context.Context, id uint) (*models.Order, error)

	// AddItem adds a single line item to an unpaid order
	AddItem(ctx context.Context, orderID uint, input ItemInput) (*models.OrderItem, error)
	// AddItems adds a batch of line items; either all are added or none
	AddItems(ctx context.Context, orderID uint, inputs []ItemInput) ([]models.OrderItem, error)
	// UpdateItem changes the quantity and re-prices the item from the current dish price
	UpdateItem(ctx context.Context, orderID, itemID uint, quantity int) (*models.OrderItem, error)
	// RemoveItem deletes a line item from an unpaid order
	RemoveItem(ctx context.Context, orderID, itemID uint) error

	// Statistics aggregates order counts and paid revenue
	Statistics(ctx context.Context) (*models.OrderStatistics, error)
	// Revenue sums the totals of paid orders
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// orderService is the implementation of the OrderService interface
type orderService struct {
	db *gorm.DB
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(db *gorm.DB) OrderService {
	return &orderService{db: db}
}

func (s *orderService) CreateOrder(ctx context.Context, tableNumber int, items []ItemInput) (*models.Order, error) {
	if err := validateTableNumber(tableNumber); err != nil {
		return nil, err
	}
	if err := validateItemInputs(items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	order := models.Order{
		TableNumber: tableNumber,
		Status:      models.StatusPending,
		TotalPrice:  decimal.Zero,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dishes, err := loadDishes(tx, items)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, input := range items {
			if _, err := addItem(tx, &order, dishes[input.DishID], input.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, order.ID)
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", orderItemsByID).
		Preload("Items.Dish").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	order.TotalItems = len(order.Items)
	return &order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.TableNumber != nil {
		query = query.Where("table_number = ?", *filter.TableNumber)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "status"}, Desc: filter.SortDesc}).Order("id")

	var orders []models.Order
	if err := query.Preload("Items", orderItemsByID).Preload("Items.Dish").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	for i := range orders {
		orders[i].TotalItems = len(orders[i].Items)
	}
	return orders, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id uint, input UpdateOrderInput) (*models.Order, error) {
	if input.TableNumber != nil {
		if err := validateTableNumber(*input.TableNumber); err != nil {
			return nil, err
		}
	}
	if input.Items != nil {
		if err := validateItemInputs(input.Items); err != nil {
			return nil, err
		}
		if len(input.Items) == 0 {
			return nil, ErrEmptyOrder
		}
	}

	err := s.withOrderLock(ctx, id, func(tx *gorm.DB, order *models.Order) error {
		if order.IsPaid() {
			return fmt.Errorf("%w: order %d", ErrOrderImmutable, order.ID)
		}

		if input.TableNumber != nil {
			err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
				"table_number": *input.TableNumber,
				"updated_at":   time.Now(),
			}).Error
			if err != nil {
				return fmt.Errorf("update order %d: %w", order.ID, err)
			}
		}

		if input.Items == nil {
			return nil
		}
		dishes, err := loadDishes(tx, input.Items)
		if err != nil {
			return err
		}
		var current []models.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&current).Error; err != nil {
			return fmt.Errorf("load items of order %d: %w", order.ID, err)
		}
		for i := range current {
			if err := removeItem(tx, order, &current[i]); err != nil {
				return err
			}
		}
		for _, item := range input.Items {
			if _, err := addItem(tx, order, dishes[item.DishID], item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) DeleteOrder(ctx context.Context, id uint) error {
	return s.withOrderLock(ctx, id, func(tx *gorm.DB, order *models.Order) error {
		if order.IsPaid() {
			return fmt.Errorf("%w: order %d", ErrOrderImmutable, order.ID)
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete items of order %d: %w", order.ID, err)
		}
		if err := tx.Delete(order).Error; err != nil {
			return fmt.Errorf("delete order %d: %w", order.ID, err)
		}
		return nil
	})
}

func (s *orderService) SetStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, status)
	}

	var updated *models.Order
	err := s.withOrderLock(ctx, id, func(tx *gorm.DB, order *models.Order) error {
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: from %q to %q", ErrInvalidStatusTransition, order.Status, next)
		}
		now := time.Now()
		err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"status":     next,
			"updated_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("update status of order %d: %w", order.ID, err)
		}
		order.Status, order.UpdatedAt = next, now
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *orderService) RecalculateTotal(ctx context.Context, id uint) (*models.Order, error) {
	var updated *models.Order
	err := s.withOrderLock(ctx, id, func(tx *gorm.DB, order *models.Order) error {
		updated = order
		return recalculateTotal(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *orderService) Statistics(ctx context.Context) (*models.OrderStatistics, error) {
	db := s.db.WithContext(ctx)
	stats := &models.OrderStatistics{}

	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	revenue, err := paidRevenue(db)
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue

	var grouped []models.StatusCount
	err = db.Model(&models.Order{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&grouped).Error
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	counts := make(map[models.OrderStatus]int64, len(grouped))
	for _, row := range grouped {
		counts[row.Status] = row.Count
	}
	for _, status := range models.OrderStatuses() {
		stats.OrdersByStatus = append(stats.OrdersByStatus, models.StatusCount{Status: status, Count: counts[status]})
	}
	return stats, nil
}

func (s *orderService) Revenue(ctx context.Context) (decimal.Decimal, error) {
	return paidRevenue(s.db.WithContext(ctx))
}

// withOrderLock runs fn in a transaction holding a row lock on the order.
// Every read-sum-write of an order total happens inside such a transaction.
func (s *orderService) withOrderLock(ctx context.Context, id uint, fn func(tx *gorm.DB, order *models.Order) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
			}
			return fmt.Errorf("lock order %d: %w", id, err)
		}
		return fn(tx, &order)
	})
}

func paidRevenue(db *gorm.DB) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := db.Model(&models.Order{}).Where("status = ?", models.StatusPaid).Pluck("total_price", &totals).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum paid revenue: %w", err)
	}
	return sumDecimals(totals), nil
}

func orderItemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id")
}

func validateTableNumber(tableNumber int) error {
	if tableNumber < minTableNumber || tableNumber > maxTableNumber {
		return validationError("table number must be between %d and %d, got %d", minTableNumber, maxTableNumber, tableNumber)
	}
	return nil
}
