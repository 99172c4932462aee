package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
)

// AppendHistory records one price observation and fills in its ID.
func (r *Repository) AppendHistory(ctx context.Context, entry *models.PriceHistoryEntry) error {
	const opn = "repository.sqlite.AppendHistory"

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO price_history (product_id, price, currency, origin, observed_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ProductID, entry.Price, entry.Currency, string(entry.Origin), entry.ObservedAt)
	if err != nil {
		return fmt.Errorf("%s: failed to insert history entry: %w", opn, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: failed to get inserted id: %w", opn, err)
	}
	entry.ID = id

	return nil
}

// ListHistorySince returns a product's observations at or after the given
// time, ordered by observation time ascending.
func (r *Repository) ListHistorySince(
	ctx context.Context,
	productID int64,
	since time.Time,
) ([]models.PriceHistoryEntry, error) {
	const opn = "repository.sqlite.ListHistorySince"

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, price, currency, origin, observed_at
		FROM price_history
		WHERE product_id = ? AND observed_at >= ?
		ORDER BY observed_at ASC, id ASC`,
		productID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query history: %w", opn, err)
	}
	defer rows.Close()

	var entries []models.PriceHistoryEntry
	for rows.Next() {
		var (
			entry  models.PriceHistoryEntry
			origin string
		)
		if err = rows.Scan(&entry.ID, &entry.ProductID, &entry.Price, &entry.Currency,
			&origin, &entry.ObservedAt); err != nil {
			return nil, fmt.Errorf("%s: failed to scan history entry: %w", opn, err)
		}
		entry.Origin = models.HistoryOrigin(origin)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return entries, nil
}
