package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxDishNameLength = 101
	// DefaultPopularLimit is used when no positive limit is requested
	DefaultPopularLimit = 5
	maxPopularLimit     = 50
)

// maxPrice keeps prices inside decimal(11,2)
var maxPrice = decimal.New(1, 9)

// DishUpdate carries the catalog fields to change; nil fields are left alone
type DishUpdate struct {
	Name  *string
	Price *decimal.Decimal
}

// DishService provides methods to manage the menu catalog
type DishService interface {
	// CreateDish adds a dish to the catalog
	CreateDish(ctx context.Context, name string, price decimal.Decimal) (*models.Dish, error)
	// ListDishes retrieves the whole catalog ordered by name
	ListDishes(ctx context.Context) ([]models.Dish, error)
	// GetDish retrieves a dish by its ID
	GetDish(ctx context.Context, id uint) (*models.Dish, error)
	// UpdateDish changes name and/or price; existing line items keep their snapshot
	UpdateDish(ctx context.Context, id uint, update DishUpdate) (*models.Dish, error)
	// DeleteDish removes a dish that no line item references
	DeleteDish(ctx context.Context, id uint) error
	// PopularDishes returns the dishes referenced by the most line items
	PopularDishes(ctx context.Context, limit int) ([]models.PopularDish, error)
}

// dishService is the implementation of the DishService interface
type dishService struct {
	db *gorm.DB
}

// NewDishService creates a new instance of DishService
func NewDishService(db *gorm.DB) DishService {
	return &dishService{db: db}
}

func (s *dishService) CreateDish(ctx context.Context, name string, price decimal.Decimal) (*models.Dish, error) {
	name, err := validateDish(name, price)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := ensureUniqueDishName(db, name, 0); err != nil {
		return nil, err
	}

	dish := models.Dish{Name: name, Price: price}
	if err := db.Create(&dish).Error; err != nil {
		return nil, translateDishWriteError(err, name)
	}
	return &dish, nil
}

func (s *dishService) ListDishes(ctx context.Context) ([]models.Dish, error) {
	var dishes []models.Dish
	if err := s.db.WithContext(ctx).Order("name").Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	return dishes, nil
}

func (s *dishService) GetDish(ctx context.Context, id uint) (*models.Dish, error) {
	return findDish(s.db.WithContext(ctx), id)
}

func (s *dishService) UpdateDish(ctx context.Context, id uint, update DishUpdate) (*models.Dish, error) {
	var dish *models.Dish
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		dish, err = findDish(tx, id)
		if err != nil {
			return err
		}

		name, price := dish.Name, dish.Price
		if update.Name != nil {
			name = *update.Name
		}
		if update.Price != nil {
			price = *update.Price
		}
		if name, err = validateDish(name, price); err != nil {
			return err
		}
		if err := ensureUniqueDishName(tx, name, dish.ID); err != nil {
			return err
		}

		dish.Name, dish.Price = name, price
		if err := tx.Save(dish).Error; err != nil {
			return translateDishWriteError(err, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dish, nil
}

func (s *dishService) DeleteDish(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dish, err := findDish(tx, id)
		if err != nil {
			return err
		}

		var references int64
		if err := tx.Model(&models.OrderItem{}).Where("dish_id = ?", dish.ID).Count(&references).Error; err != nil {
			return fmt.Errorf("count references to dish %d: %w", dish.ID, err)
		}
		if references > 0 {
			return fmt.Errorf("%w: %q appears in %d line items", ErrDishInUse, dish.Name, references)
		}

		if err := tx.Delete(dish).Error; err != nil {
			return fmt.Errorf("delete dish %d: %w", dish.ID, err)
		}
		return nil
	})
}

func (s *dishService) PopularDishes(ctx context.Context, limit int) ([]models.PopularDish, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	if limit > maxPopularLimit {
		limit = maxPopularLimit
	}

	var popular []models.PopularDish
	err := s.db.WithContext(ctx).
		Model(&models.Dish{}).
		Select("dishes.*, COUNT(order_items.id) AS order_count").
		Joins("LEFT JOIN order_items ON order_items.dish_id = dishes.id").
		Group("dishes.id").
		Order("order_count DESC").
		Order("dishes.id").
		Limit(limit).
		Scan(&popular).Error
	if err != nil {
		return nil, fmt.Errorf("popular dishes: %w", err)
	}
	return popular, nil
}

// validateDish returns the normalized name or a validation error
func validateDish(name string, price decimal.Decimal) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError("dish name is required")
	}
	if utf8.RuneCountInString(name) > maxDishNameLength {
		return "", validationError("dish name exceeds %d characters", maxDishNameLength)
	}
	if !price.IsPositive() {
		return "", validationError("price must be greater than zero")
	}
	if !price.Equal(price.Round(2)) {
		return "", validationError("price %s has more than two decimal places", price)
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return "", validationError("price %s is too large", price)
	}
	return name, nil
}

func ensureUniqueDishName(db *gorm.DB, name string, exceptID uint) error {
	var count int64
	query := db.Model(&models.Dish{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check dish name: %w", err)
	}
	if count > 0 {
		return validationError("dish %q already exists", name)
	}
	return nil
}

func translateDishWriteError(err error, name string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return validationError("dish %q already exists", name)
	}
	return fmt.Errorf("save dish: %w", err)
}

func findDish(db *gorm.DB, id uint) (*models.Dish, error) {
	var dish models.Dish
	if err := db.First(&dish, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrDishNotFound, id)
		}
		return nil, fmt.Errorf("load dish %d: %w", id, err)
	}
	return &dish, nil
}
