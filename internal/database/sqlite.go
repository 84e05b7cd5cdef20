package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		built, err := sqliteDSN(cfg.Path)
		if err != nil {
			return nil, err
		}
		dsn = built
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	return db, nil
}

func sqliteDSN(path string) (string, error) {
	path = strings.TrimSpace(path)

	params := url.Values{}
	params.Set("_foreign_keys", "1")

	if path == "" || strings.EqualFold(path, ":memory:") {
		params.Set("cache", "shared")
		return "file::memory:?" + params.Encode(), nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create database directory: %w", err)
		}
	}

	params.Set("_journal_mode", "WAL")
	return fmt.Sprintf("file:%s?%s", filepath.ToSlash(path), params.Encode()), nil
}
