package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour behind a connection
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps a connection with the dialect it was opened with
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects using the configured driver name
func Open(driver, url string) (*DB, error) {
	switch Dialect(strings.ToLower(driver)) {
	case Postgres:
		return NewPostgresConnection(url)
	case SQLite:
		return NewSQLiteConnection(url)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// NewPostgresConnection opens and pings a Postgres database
func NewPostgresConnection(url string) (*DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{DB: db, Dialect: Postgres}, nil
}

// NewSQLiteConnection opens (or creates) a sqlite database. ":memory:" is
// accepted for tests.
func NewSQLiteConnection(path string) (*DB, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// a single connection keeps in-memory databases shared and serialises writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{DB: db, Dialect: SQLite}, nil
}
