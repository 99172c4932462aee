package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
)

// promotionThreshold is the relative gap below the initial price from which
// a product counts as being on promotion.
const promotionThreshold = 0.05

// UpdateProduct scrapes the product's page and reconciles the fresh snapshot
// into the persisted record. The whole read-modify-write runs under the
// product's lock, so two concurrent updates of the same product serialize.
func (t *Tracker) UpdateProduct(
	ctx context.Context,
	id int64,
	origin models.HistoryOrigin,
) (*models.UpdateResult, error) {
	const opn = "tracker.UpdateProduct"
	log := t.log.With("op", opn)

	product, err := t.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	lock := t.lockFor(product.ASIN)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent update may have finished while we
	// were waiting for it.
	product, err = t.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	snapshot, err := t.scraper.Scrape(ctx, product.ASIN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	result, err := t.reconcile(ctx, product, snapshot, origin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	if result.Unchanged {
		log.InfoContext(ctx, "Price unchanged", "asin", product.ASIN, "price", product.CurrentPrice)
	} else {
		log.InfoContext(ctx, "Price updated",
			"asin", product.ASIN,
			"old", result.OldPrice,
			"new", result.NewPrice,
			"variation_percent", result.VariationPercent,
			"on_promotion", result.OnPromotion)
	}

	return result, nil
}

// reconcile merges a snapshot into the product record: running aggregates,
// variation, promotion flag, display metadata and one history entry.
func (t *Tracker) reconcile(
	ctx context.Context,
	product *models.TrackedProduct,
	snapshot models.ProductSnapshot,
	origin models.HistoryOrigin,
) (*models.UpdateResult, error) {
	now := time.Now()

	result := &models.UpdateResult{
		ASIN:     product.ASIN,
		OldPrice: cloneFloat(product.CurrentPrice),
		Currency: product.Currency,
	}

	unchanged := snapshot.Price == nil ||
		(product.CurrentPrice != nil && *snapshot.Price == *product.CurrentPrice)
	if unchanged {
		// Even an unchanged observation marks the record as refreshed.
		product.LastUpdatedAt = &now
		if err := t.repo.SaveProduct(ctx, product); err != nil {
			return nil, fmt.Errorf("failed to save product: %w", err)
		}

		result.Unchanged = true
		result.NewPrice = cloneFloat(product.CurrentPrice)

		return result, nil
	}

	newPrice := *snapshot.Price

	if product.CurrentPrice != nil {
		delta := newPrice - *product.CurrentPrice
		result.Delta = delta
		result.VariationPercent = round2(delta / *product.CurrentPrice * 100)
		product.PriceVariation = result.VariationPercent
	}

	product.CurrentPrice = &newPrice
	result.NewPrice = cloneFloat(&newPrice)

	// First real observation after a placeholder registration seeds the
	// reference price; it stays fixed from then on.
	if product.InitialPrice == nil {
		product.InitialPrice = cloneFloat(&newPrice)
	}

	if product.LowestPrice == nil || newPrice < *product.LowestPrice {
		product.LowestPrice = cloneFloat(&newPrice)
	}
	if product.HighestPrice == nil || newPrice > *product.HighestPrice {
		product.HighestPrice = cloneFloat(&newPrice)
	}

	if product.InitialPrice != nil && *product.InitialPrice > 0 {
		gap := (*product.InitialPrice - newPrice) / *product.InitialPrice
		product.OnPromotion = gap > promotionThreshold
	}
	result.OnPromotion = product.OnPromotion

	// A failed or partial extraction must not erase known display metadata.
	if snapshot.Title != "" {
		product.Title = snapshot.Title
	}
	if snapshot.ImageURL != "" {
		product.ImageURL = snapshot.ImageURL
	}

	product.LastUpdatedAt = &now

	if err := t.repo.SaveProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	entry := &models.PriceHistoryEntry{
		ProductID:  product.ID,
		Price:      newPrice,
		Currency:   product.Currency,
		Origin:     origin,
		ObservedAt: now,
	}
	if err := t.repo.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append history entry: %w", err)
	}

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
