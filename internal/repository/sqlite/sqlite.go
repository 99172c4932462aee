package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Repository is the sqlite-backed store for tracked products, their price
// history and notification subscriptions.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository opens (or creates) the database file at storagePath and runs
// the initial schema migration.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	// Foreign keys must be on for history rows to cascade with their product.
	dtb, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = dtb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	if err = initSchema(ctx, dtb); err != nil {
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, log: log}, nil
}

// NewForTest wraps an existing database handle. Intended for unit tests that
// inject a mocked connection.
func NewForTest(dtb *sql.DB) *Repository {
	return &Repository{db: dtb, log: slog.Default()}
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asin TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		title TEXT,
		image_url TEXT,
		current_price REAL,
		initial_price REAL,
		lowest_price REAL,
		highest_price REAL,
		currency TEXT NOT NULL DEFAULT '€',
		on_promotion INTEGER NOT NULL DEFAULT 0,
		price_variation REAL NOT NULL DEFAULT 0,
		last_updated_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		price REAL NOT NULL,
		currency TEXT NOT NULL DEFAULT '€',
		origin TEXT NOT NULL,
		observed_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_price_history_product_observed
		ON price_history (product_id, observed_at);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
