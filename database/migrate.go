package database

import (
	"fmt"

	"analytics-gateway/models"

	"gorm.io/gorm"
)

// AutoMigrate applies the (idempotent) schema for shops and request logs:
// - AutoMigrate (tables/columns/index tags, incl. the unique shop domain)
// - composite index for per-store log listing
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Shop{}, &models.RequestLog{}); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_request_logs_store_created ON request_logs (store_id, created_at)`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
		}
	}
	return nil
}
