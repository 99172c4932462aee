package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
)

// SweepAll processes every tracked product strictly sequentially: one item is
// fully fetched, extracted and reconciled before the next begins. A failing
// item is recorded and never stops the sweep.
func (t *Tracker) SweepAll(ctx context.Context) (*models.SweepSummary, error) {
	const opn = "tracker.SweepAll"
	log := t.log.With("op", opn)

	products, err := t.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list products: %w", opn, err)
	}

	summary := &models.SweepSummary{Total: len(products)}
	if len(products) == 0 {
		log.InfoContext(ctx, "No tracked products, nothing to sweep")
		return summary, nil
	}

	log.InfoContext(ctx, "Starting sweep", "total", summary.Total)

	for i, product := range products {
		item := models.SweepItemResult{ASIN: product.ASIN}

		result, err := t.UpdateProduct(ctx, product.ID, models.OriginScheduledUpdate)
		if err != nil {
			item.Err = err.Error()
			summary.Failed++
			log.WarnContext(ctx, "Sweep item failed", "asin", product.ASIN, "error", err)
		} else {
			item.Result = result
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, item)

		// Pacing between items, not after the last one.
		if i < len(products)-1 {
			select {
			case <-time.After(t.sweepDelay):
			case <-ctx.Done():
				return summary, fmt.Errorf("%s: %w", opn, ctx.Err())
			}
		}
	}

	log.InfoContext(ctx, "Sweep finished",
		"total", summary.Total, "succeeded", summary.Succeeded, "failed", summary.Failed)

	return summary, nil
}
