package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/franciscosanchezn/gin-cafe-api/internal/database"
	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.sqlite"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func price(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func createDish(t *testing.T, dishes DishService, name, value string) *models.Dish {
	t.Helper()
	dish, err := dishes.CreateDish(context.Background(), name, price(t, value))
	require.NoError(t, err)
	return dish
}

// assertTotalMatchesItems checks the cached total against the persisted items
func assertTotalMatchesItems(t *testing.T, db *gorm.DB, orderID uint) {
	t.Helper()

	var order models.Order
	require.NoError(t, db.First(&order, orderID).Error)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", orderID).Find(&items).Error)

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price)
	}
	assert.Equal(t, sum.StringFixed(2), order.TotalPrice.StringFixed(2), "cached total drifted from item set")
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
