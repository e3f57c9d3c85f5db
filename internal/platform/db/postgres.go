package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smithjps512/garden-prayer-campaigns-sub001/internal/platform/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps DB connectivity.
// Keep transaction helpers here to support outbox + state consistency.
type Database struct {
	DB *gorm.DB
}

// Connect opens the configured dialect. TranslateError is on so unique
// violations surface as gorm.ErrDuplicatedKey on every driver.
func Connect(cfg config.DatabaseConfig) (*Database, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is required")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve %s sql db handle: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// One connection keeps ":memory:" databases shared and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return &Database{DB: db}, nil
}

// Migrate runs each migration in order against the open connection.
func (d *Database) Migrate(migrations ...func(*gorm.DB) error) error {
	for _, migrate := range migrations {
		if err := migrate(d.DB); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}
	return nil
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
