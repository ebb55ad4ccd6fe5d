package database

import (
	"fmt"
	"log"
	"time"

	"bloom/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects the driver and connection string.
type Config struct {
	Driver string
	DSN    string
	// MaxOpenConns caps the pool. Zero keeps the driver default.
	MaxOpenConns int
}

const retryDelay = 5 * time.Second

func dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects to the database, retrying once, and migrates the schema.
func Open(cfg Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(d, gormCfg)
	if err != nil {
		log.Printf("Failed to connect to database: %v. Retrying in %s...", err, retryDelay)
		time.Sleep(retryDelay)
		db, err = gorm.Open(d, gormCfg)
		if err != nil {
			return nil, fmt.Errorf("could not connect to database: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database connected and migrated")
	return db, nil
}

// Migrate creates or updates every table the service needs.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
