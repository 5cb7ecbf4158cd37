package database

import (
	"fmt"
	"time"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/lendauth/internal/infrastructure/repositories"
)

// GormConfig returns the settings every connection to the credential store uses.
// Timestamps are written in UTC so expiry comparisons are stable across drivers.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// Open creates a new database connection with production-ready settings
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// AutoMigrate creates the user, code and session tables and the Casbin
// policy table used for role checks
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(repositories.Models()...); err != nil {
		return fmt.Errorf("failed to migrate credential tables: %w", err)
	}

	// the adapter creates casbin_rule on construction
	if _, err := gormadapter.NewAdapterByDB(db); err != nil {
		return fmt.Errorf("failed to initialize Casbin GORM adapter: %w", err)
	}
	return nil
}
