package database

import (
	"fmt"

	"forestval/internal/logger"
	"forestval/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM.
// driver is "postgres" or "sqlite"; for sqlite the dsn is a file path or ":memory:".
func NewConnection(driver, dsn string, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Warn("failed to auto-migrate models", "error", err)
	}

	return db, nil
}

// Migrate creates or updates the tables of the run history.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.ValuationRun{},
		&model.AuditLog{},
	)
}

// OpenTestDB returns a migrated in-memory SQLite database with gorm logging silenced.
func OpenTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
