package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/shopspring/decimal"
)

// MenuEntry is one dish of a seed menu
type MenuEntry struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// DefaultMenu is the starter menu of a fresh installation
func DefaultMenu() []MenuEntry {
	return []MenuEntry{
		{Name: "Margherita", Price: decimal.RequireFromString("10.99")},
		{Name: "Pepperoni", Price: decimal.RequireFromString("12.99")},
		{Name: "Caesar Salad", Price: decimal.RequireFromString("8.50")},
		{Name: "Tomato Soup", Price: decimal.RequireFromString("6.00")},
		{Name: "Espresso", Price: decimal.RequireFromString("2.20")},
	}
}

// ReadMenu decodes a JSON array of menu entries
func ReadMenu(r io.Reader) ([]MenuEntry, error) {
	var entries []MenuEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	return entries, nil
}

// SeedMenu creates the given dishes when the catalog is empty.
// It returns the number of dishes created, which is zero for a populated catalog.
func SeedMenu(ctx context.Context, dishes DishService, entries []MenuEntry) (int, error) {
	existing, err := dishes.ListDishes(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := make([]*models.Dish, 0, len(entries))
	for _, entry := range entries {
		dish, err := dishes.CreateDish(ctx, entry.Name, entry.Price)
		if err != nil {
			return len(created), fmt.Errorf("seed dish %q: %w", entry.Name, err)
		}
		created = append(created, dish)
	}
	return len(created), nil
}
