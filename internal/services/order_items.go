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

func (s *orderService) AddItem(ctx context.Context, orderID uint, input ItemInput) (*models.OrderItem, error) {
	items, err := s.AddItems(ctx, orderID, []ItemInput{input})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *orderService) AddItems(ctx context.Context, orderID uint, inputs []ItemInput) ([]models.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, validationError("at least one item is required")
	}
	if err := validateItemInputs(inputs); err != nil {
		return nil, err
	}

	var created []models.OrderItem
	err := s.withOrderLock(ctx, orderID, func(tx *gorm.DB, order *models.Order) error {
		if order.IsPaid() {
			return fmt.Errorf("%w: order %d", ErrOrderImmutable, order.ID)
		}
		dishes, err := loadDishes(tx, inputs)
		if err != nil {
			return err
		}
		for _, input := range inputs {
			item, err := addItem(tx, order, dishes[input.DishID], input.Quantity)
			if err != nil {
				return err
			}
			created = append(created, *item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *orderService) UpdateItem(ctx context.Context, orderID, itemID uint, quantity int) (*models.OrderItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var updated *models.OrderItem
	err := s.withOrderLock(ctx, orderID, func(tx *gorm.DB, order *models.Order) error {
		if order.IsPaid() {
			return fmt.Errorf("%w: order %d", ErrOrderImmutable, order.ID)
		}
		item, err := findOrderItem(tx, order.ID, itemID)
		if err != nil {
			return err
		}
		dish, err := findDish(tx, item.DishID)
		if err != nil {
			return err
		}

		price, err := linePrice(dish.Price, quantity)
		if err != nil {
			return err
		}
		item.Quantity = quantity
		item.Price = price
		item.DishName = dish.Name
		if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
			return fmt.Errorf("save item %d: %w", item.ID, err)
		}
		if err := recalculateTotal(tx, order); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *orderService) RemoveItem(ctx context.Context, orderID, itemID uint) error {
	return s.withOrderLock(ctx, orderID, func(tx *gorm.DB, order *models.Order) error {
		if order.IsPaid() {
			return fmt.Errorf("%w: order %d", ErrOrderImmutable, order.ID)
		}
		item, err := findOrderItem(tx, order.ID, itemID)
		if err != nil {
			return err
		}
		return removeItem(tx, order, item)
	})
}

// addItem persists a line item priced from the dish and then recalculates
// the order total. tx must hold the order lock.
func addItem(tx *gorm.DB, order *models.Order, dish models.Dish, quantity int) (*models.OrderItem, error) {
	price, err := linePrice(dish.Price, quantity)
	if err != nil {
		return nil, err
	}
	item := models.OrderItem{
		OrderID:  order.ID,
		DishID:   dish.ID,
		DishName: dish.Name,
		Quantity: quantity,
		Price:    price,
	}
	if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create item for order %d: %w", order.ID, err)
	}
	if err := recalculateTotal(tx, order); err != nil {
		return nil, err
	}
	return &item, nil
}

// removeItem deletes a line item and then recalculates the order total.
// tx must hold the order lock.
func removeItem(tx *gorm.DB, order *models.Order, item *models.OrderItem) error {
	if err := tx.Delete(item).Error; err != nil {
		return fmt.Errorf("delete item %d: %w", item.ID, err)
	}
	return recalculateTotal(tx, order)
}

// recalculateTotal recomputes the order total from scratch out of the
// persisted item prices. An order without items totals zero.
func recalculateTotal(tx *gorm.DB, order *models.Order) error {
	var prices []decimal.Decimal
	if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Pluck("price", &prices).Error; err != nil {
		return fmt.Errorf("sum items of order %d: %w", order.ID, err)
	}
	total := sumDecimals(prices)
	if total.GreaterThanOrEqual(maxPrice) {
		return validationError("order %d total %s exceeds %s", order.ID, total.StringFixed(2), maxPrice)
	}

	now := time.Now()
	err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"total_price": total,
		"updated_at":  now,
	}).Error
	if err != nil {
		return fmt.Errorf("store total of order %d: %w", order.ID, err)
	}
	order.TotalPrice, order.UpdatedAt = total, now
	return nil
}

// loadDishes resolves every referenced dish or fails with ErrDishNotFound
func loadDishes(tx *gorm.DB, inputs []ItemInput) (map[uint]models.Dish, error) {
	ids := make([]uint, 0, len(inputs))
	seen := make(map[uint]bool, len(inputs))
	for _, input := range inputs {
		if !seen[input.DishID] {
			seen[input.DishID] = true
			ids = append(ids, input.DishID)
		}
	}

	var dishes []models.Dish
	if err := tx.Where("id IN ?", ids).Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("load dishes: %w", err)
	}
	byID := make(map[uint]models.Dish, len(dishes))
	for _, dish := range dishes {
		byID[dish.ID] = dish
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: id %d", ErrDishNotFound, id)
		}
	}
	return byID, nil
}

func findOrderItem(tx *gorm.DB, orderID, itemID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	err := tx.Where("order_id = ? AND id = ?", orderID, itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %d in order %d", ErrOrderItemNotFound, itemID, orderID)
		}
		return nil, fmt.Errorf("load item %d: %w", itemID, err)
	}
	return &item, nil
}

func validateItemInputs(inputs []ItemInput) error {
	for i, input := range inputs {
		if err := validateQuantity(input.Quantity); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return validationError("quantity must be greater than zero, got %d", quantity)
	}
	return nil
}

// linePrice is dish price times quantity, bounded like every stored amount
func linePrice(price decimal.Decimal, quantity int) (decimal.Decimal, error) {
	total := price.Mul(decimal.NewFromInt(int64(quantity)))
	if total.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, validationError("line price %s x %d exceeds %s", price.StringFixed(2), quantity, maxPrice)
	}
	return total, nil
}

func sumDecimals(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
