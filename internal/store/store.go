// Package store provides SQLite-backed persistence for the exercise
// library, workout history, baselines, and rotation bookkeeping that feed
// the planner. It adapts the teacher's database-connection-plus-goose-
// migration helper to this module's schema.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	domainerrors "github.com/forgelift/planner/internal/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Config holds database connection settings.
type Config struct {
	Path string // ":memory:" for an in-memory database
}

// Open opens a SQLite database connection and brings its schema up to date.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, domainerrors.NewInternal("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domainerrors.NewInternal("ping database", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, domainerrors.NewInternal("migrate database", err)
	}

	return db, nil
}

// OpenInMemory opens an in-memory database with its schema applied. Useful
// for tests.
func OpenInMemory() (*sql.DB, error) {
	return Open(Config{Path: ":memory:"})
}

// OpenTemp opens a temporary on-disk database and returns a cleanup func
// that closes it and removes the file.
func OpenTemp() (*sql.DB, func(), error) {
	tmpFile, err := os.CreateTemp("", "planner-*.db")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp db file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	db, err := Open(Config{Path: tmpPath})
	if err != nil {
		os.Remove(tmpPath)
		return nil, nil, err
	}

	cleanup := func() {
		db.Close()
		os.Remove(tmpPath)
	}
	return db, cleanup, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
