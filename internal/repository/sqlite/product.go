package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmercier/pricewatch/internal/models"
	"github.com/lmercier/pricewatch/internal/repository"
	"github.com/mattn/go-sqlite3"
)

const productColumns = `id, asin, url, title, image_url, current_price, initial_price,
	lowest_price, highest_price, currency, on_promotion, price_variation, last_updated_at, created_at`

// GetProductByASIN returns the tracked product with the given ASIN.
func (r *Repository) GetProductByASIN(ctx context.Context, asin string) (*models.TrackedProduct, error) {
	const opn = "repository.sqlite.GetProductByASIN"

	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM products WHERE asin = ?", productColumns), asin)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return product, nil
}

// GetProductByID returns the tracked product with the given primary key.
func (r *Repository) GetProductByID(ctx context.Context, id int64) (*models.TrackedProduct, error) {
	const opn = "repository.sqlite.GetProductByID"

	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM products WHERE id = ?", productColumns), id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return product, nil
}

// CreateProduct inserts a new tracked product and fills in its ID.
func (r *Repository) CreateProduct(ctx context.Context, product *models.TrackedProduct) error {
	const opn = "repository.sqlite.CreateProduct"

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products (asin, url, title, image_url, current_price, initial_price,
			lowest_price, highest_price, currency, on_promotion, price_variation, last_updated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ASIN, product.URL,
		nullString(product.Title), nullString(product.ImageURL),
		product.CurrentPrice, product.InitialPrice, product.LowestPrice, product.HighestPrice,
		product.Currency, product.OnPromotion, product.PriceVariation,
		product.LastUpdatedAt, product.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%s: %w", opn, repository.ErrDuplicateProduct)
		}
		return fmt.Errorf("%s: failed to insert product: %w", opn, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: failed to get inserted id: %w", opn, err)
	}
	product.ID = id

	return nil
}

// SaveProduct persists the mutable fields of an existing product.
func (r *Repository) SaveProduct(ctx context.Context, product *models.TrackedProduct) error {
	const opn = "repository.sqlite.SaveProduct"

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET url = ?, title = ?, image_url = ?, current_price = ?, initial_price = ?,
			lowest_price = ?, highest_price = ?, currency = ?, on_promotion = ?,
			price_variation = ?, last_updated_at = ?
		WHERE id = ?`,
		product.URL, nullString(product.Title), nullString(product.ImageURL),
		product.CurrentPrice, product.InitialPrice, product.LowestPrice, product.HighestPrice,
		product.Currency, product.OnPromotion, product.PriceVariation,
		product.LastUpdatedAt, product.ID)
	if err != nil {
		return fmt.Errorf("%s: failed to update product: %w", opn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", opn, err)
	}
	if affected == 0 {
		return repository.ErrProductNotFound
	}

	return nil
}

// ListProducts returns all tracked products, newest first.
func (r *Repository) ListProducts(ctx context.Context) ([]models.TrackedProduct, error) {
	const opn = "repository.sqlite.ListProducts"

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM products ORDER BY created_at DESC, id DESC", productColumns))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query products: %w", opn, err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan product: %w", opn, err)
		}
		products = append(products, *product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return products, nil
}

// DeleteProduct removes a product; its history rows cascade with it.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	const opn = "repository.sqlite.DeleteProduct"

	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete product: %w", opn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", opn, err)
	}
	if affected == 0 {
		return repository.ErrProductNotFound
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanProduct.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.TrackedProduct, error) {
	var (
		product       models.TrackedProduct
		title, image  sql.NullString
		current       sql.NullFloat64
		initial       sql.NullFloat64
		lowest        sql.NullFloat64
		highest       sql.NullFloat64
		lastUpdatedAt sql.NullTime
	)

	err := row.Scan(&product.ID, &product.ASIN, &product.URL, &title, &image,
		&current, &initial, &lowest, &highest,
		&product.Currency, &product.OnPromotion, &product.PriceVariation,
		&lastUpdatedAt, &product.CreatedAt)
	if err != nil {
		return nil, err
	}

	product.Title = title.String
	product.ImageURL = image.String
	product.CurrentPrice = nullableFloat(current)
	product.InitialPrice = nullableFloat(initial)
	product.LowestPrice = nullableFloat(lowest)
	product.HighestPrice = nullableFloat(highest)
	if lastUpdatedAt.Valid {
		t := lastUpdatedAt.Time
		product.LastUpdatedAt = &t
	}

	return &product, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
