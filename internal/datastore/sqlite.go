package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/princeton-sns/noise-go/internal/infrastructure/database"
)

// kvSchema creates the single key/value table the store uses. Kept inline
// rather than in a migration set: the table is the whole schema.
const kvSchema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	) STRICT;
`

// SQLiteStore is a durable Store backed by a local SQLite database.
// It is the collaborator responsible for application data that must
// outlive the device process.
type SQLiteStore struct {
	db     *sql.DB
	closer io.Closer // set when the store owns the underlying handle
}

// NewSQLiteStore wraps an open SQLite connection, creating the key/value
// table if needed. The caller keeps ownership of the connection; Close on
// the returned store does not close it.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("creating kv schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens (or creates) a SQLite database with the given
// configuration and builds a store on it. The store owns the connection
// and Close releases it.
func OpenSQLite(ctx context.Context, cfg database.Config) (*SQLiteStore, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening datastore database: %w", err)
	}

	store, err := NewSQLiteStore(ctx, db.DB)
	if err != nil {
		db.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, err
	}
	store.closer = db
	return store, nil
}

// DB exposes the underlying handle so collaborators such as the audit
// trail can share the same database file.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("querying key: %w", err)
	}
	return value, nil
}

// Set inserts or overwrites the value for key.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv_store (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting key: %w", err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	return nil
}

// Keys returns every stored key, sorted.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv_store ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keys, nil
}

// Close releases the underlying database handle when the store owns it.
func (s *SQLiteStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
