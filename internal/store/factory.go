package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Config holds configuration for the report store backend.
type Config struct {
	Type   string `mapstructure:"type"`   // memory, sqlite, postgres, badger, gcs
	DSN    string `mapstructure:"dsn"`    // Postgres DSN
	Path   string `mapstructure:"path"`   // SQLite file or Badger directory
	Bucket string `mapstructure:"bucket"` // GCS bucket
	Prefix string `mapstructure:"prefix"` // GCS object prefix
}

// New creates a ReportStore based on the provided configuration.
func New(ctx context.Context, cfg Config, log *slog.Logger) (ReportStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		if cfg.Path == "" {
			cfg.Path = "drc.db"
		}
		return NewSQLiteStore(cfg.Path)
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(cfg.DSN)
	case "badger":
		if cfg.Path == "" {
			return NewBadgerStore(BadgerConfig{InMemory: true, Logger: log})
		}
		return NewBadgerStore(BadgerConfig{Path: cfg.Path, SyncWrites: true, Logger: log})
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
