package database

import (
	"github.com/franciscosanchezn/gin-cafe-api/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables backing the order core
func Migrate(db *gorm.DB) error {
	log.Info("Migrating database schema")
	return db.AutoMigrate(&models.Dish{}, &models.Order{}, &models.OrderItem{})
}
