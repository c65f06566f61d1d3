package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Config selects and parameterises the cache's backing database. SQLite is
// the default; postgres and mysql are for shared deployments where the API
// and the sync CLI run on different hosts against the same cache.
type Config struct {
	Driver   string
	Path     string // sqlite file path
	DSN      string // full DSN override, skips the builders below
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// Open initialises a gorm.DB for the configured driver.
func Open(cfg Config) (*gorm.DB, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		return openSQLite(cfg)
	case "postgres", "postgresql":
		return openPostgres(cfg)
	case "mysql":
		return openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenAndMigrate opens the database and brings the cache schema up to date.
// Both entrypoints call this so the sync CLI can run against a fresh file.
func OpenAndMigrate(cfg Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return db, nil
}

// Close releases the underlying sql.DB connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
