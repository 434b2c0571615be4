package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bsm-backend/internal/models"
)

// Open opens the Postgres connection with the simple protocol so pooled
// connections (pgbouncer) work.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.BusinessRecord{},
		&models.ChangeLog{},
		&models.ImportLog{},
		&models.User{},
	)
}
