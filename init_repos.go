package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/config"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/database"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/repository"
)

// Repositories holds the open database and the store built on it.
type Repositories struct {
	DB    *database.DB
	Store repository.Store
}

// initRepositories opens the SQLite file, applies the embedded migrations
// and builds the repository store.
func initRepositories(cfg *config.Config, log *slog.Logger) (*Repositories, error) {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	db, err := database.New(cfg.Database.Path, migrations, discardIfNil(log))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Repositories{
		DB:    db,
		Store: repository.NewSQLiteStore(db.Conn),
	}, nil
}
