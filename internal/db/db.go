package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/farm-weather/internal/config"
)

const driverName = "sqlite3"

// Open opens and pings the SQLite database holding station readings.
func Open(cfg *config.AppConfig) (*sql.DB, error) {
	dsn, err := buildDSN(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	// SQLite serializes writers; a small pool avoids "database is locked".
	if cfg.SQLiteMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func buildDSN(path string) (string, error) {
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
