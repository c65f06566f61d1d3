package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteDSN builds the connection string for a cache file. WAL mode lets the
// API serve reads while a sync job is writing, and the busy timeout stops
// those writers from surfacing SQLITE_BUSY to request handlers.
func sqliteDSN(path string) string {
	if path == "" || strings.EqualFold(path, ":memory:") {
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", filepath.ToSlash(path))
}

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		path := strings.TrimSpace(cfg.Path)
		if path != "" && !strings.EqualFold(path, ":memory:") {
			if dir := filepath.Dir(path); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
			}
		}
		dsn = sqliteDSN(path)
	}

	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
