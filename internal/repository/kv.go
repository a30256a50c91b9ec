package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by KVStore.Get for absent keys.
var ErrNotFound = errors.New("key not found")

// KVStore is a string-keyed store of opaque values. Implementations must be
// safe for concurrent use.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// StoreConfig selects and locates a KVStore backend.
type StoreConfig struct {
	Backend string
	Path    string // bbolt or sqlite file
	DSN     string // postgres connection string
	Driver  string // "postgres" (lib/pq) or "pgx"
}

// Open builds the configured backend. SQL backends get their table created.
func Open(ctx context.Context, cfg StoreConfig, logger *slog.Logger) (KVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendBolt, "":
		return OpenBolt(cfg.Path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		driver := cfg.Driver
		if driver == "" {
			driver = "postgres"
		}
		return openSQL(ctx, driver, cfg.DSN, logger)
	case BackendSQLite:
		return openSQL(ctx, "sqlite3", cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown preference backend %q", cfg.Backend)
	}
}

func openSQL(ctx context.Context, driver, dsn string, logger *slog.Logger) (KVStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}

	store := NewSQLStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating preferences table: %w", err)
	}

	logger.Info("Preference store ready", slog.String("driver", driver))
	return store, nil
}
