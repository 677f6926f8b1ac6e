package favorites

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresBackend implements Backend on a single key/payload table.
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend creates a new PostgresBackend.
func NewPostgresBackend(dataSourceName string) (*PostgresBackend, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Create favorites table if not exists
	schema := `
	CREATE TABLE IF NOT EXISTS favorites (
		storage_key TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create favorites table: %w", err)
	}

	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, "SELECT payload FROM favorites WHERE storage_key = $1", key).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Nothing saved yet
		}
		return nil, fmt.Errorf("failed to get favorites by key: %w", err)
	}
	return payload, nil
}

func (b *PostgresBackend) Save(ctx context.Context, key string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		"INSERT INTO favorites (storage_key, payload, updated_at) VALUES ($1, $2::jsonb, now()) ON CONFLICT (storage_key) DO UPDATE SET payload = $2::jsonb, updated_at = now()",
		key,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
