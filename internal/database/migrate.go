package database

import (
	"fmt"

	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
)

// AutoMigrate creates or updates the schema for all models
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	log.Info("Database migration completed")
	return nil
}
