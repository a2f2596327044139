package db

import (
	"adstream/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.ContentListing{},
		&models.AdSlot{},
		&models.Bid{},
		&models.Deal{},
		&models.LedgerEntry{},
		&models.SystemSetting{},
	)
}
