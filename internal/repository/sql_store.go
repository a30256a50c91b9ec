package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps preferences in a two-column table. Queries are written with
// '?' placeholders and rebound for the connected driver, so the same code
// serves postgres and sqlite.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the preferences table when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS preferences (
			pref_key   TEXT PRIMARY KEY,
			pref_value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	query := s.db.Rebind(`SELECT pref_value FROM preferences WHERE pref_key = ?`)
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	query := s.db.Rebind(`
		INSERT INTO preferences (pref_key, pref_value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (pref_key) DO UPDATE SET
			pref_value = excluded.pref_value,
			updated_at = CURRENT_TIMESTAMP`)
	_, err := s.db.ExecContext(ctx, query, key, string(value))
	return err
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM preferences WHERE pref_key = ?`)
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

func (s *SQLStore) Close() error { return s.db.Close() }
