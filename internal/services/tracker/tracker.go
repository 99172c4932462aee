package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
	"github.com/lmercier/pricewatch/internal/repository"
	"github.com/lmercier/pricewatch/internal/repository/sqlite"
	"github.com/lmercier/pricewatch/internal/scraper"
)

// Tracker orchestrates the fetch → extract → reconcile pipeline for tracked
// products.
type Tracker struct {
	log        *slog.Logger
	scraper    scraper.PageScraper
	repo       sqlite.ProductRepository
	sweepDelay time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Interface is the service contract exposed to the HTTP surface, the
// scheduler and the notifier.
type Interface interface {
	// Register starts tracking a product given a raw URL or bare ASIN.
	Register(ctx context.Context, raw string) (*models.TrackedProduct, error)
	// UpdateProduct runs one fetch→extract→reconcile pass for a product.
	UpdateProduct(ctx context.Context, id int64, origin models.HistoryOrigin) (*models.UpdateResult, error)
	// SweepAll updates every tracked product sequentially.
	SweepAll(ctx context.Context) (*models.SweepSummary, error)
}

// NewTracker creates a new Tracker instance. sweepDelay is the pause inserted
// between two sweep items to stay polite towards the marketplace.
func NewTracker(
	log *slog.Logger,
	pageScraper scraper.PageScraper,
	repo sqlite.ProductRepository,
	sweepDelay time.Duration,
) *Tracker {
	return &Tracker{
		log:        log,
		scraper:    pageScraper,
		repo:       repo,
		sweepDelay: sweepDelay,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding reconciliation of one ASIN. A manual
// refresh racing a scheduled sweep on the same product serializes here;
// different products never block each other.
func (t *Tracker) lockFor(asin string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[asin]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[asin] = lock
	}

	return lock
}

// Register resolves the input to an ASIN, scrapes the product page once and
// creates the tracked product seeded with the first observation.
//
// When the ASIN is already tracked, the existing record is returned together
// with repository.ErrDuplicateProduct so the caller can report a conflict
// instead of a hard failure.
func (t *Tracker) Register(ctx context.Context, raw string) (*models.TrackedProduct, error) {
	const opn = "tracker.Register"
	log := t.log.With("op", opn)

	asin, err := scraper.ExtractASIN(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	existing, err := t.repo.GetProductByASIN(ctx, asin)
	if err == nil {
		log.InfoContext(ctx, "Product already tracked", "asin", asin)
		return existing, repository.ErrDuplicateProduct
	}
	if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("%s: failed to look up product: %w", opn, err)
	}

	snapshot, err := t.scraper.Scrape(ctx, asin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	now := time.Now()
	currency := snapshot.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	product := &models.TrackedProduct{
		ASIN:          asin,
		URL:           snapshot.URL,
		Title:         snapshot.Title,
		ImageURL:      snapshot.ImageURL,
		CurrentPrice:  cloneFloat(snapshot.Price),
		InitialPrice:  cloneFloat(snapshot.Price),
		LowestPrice:   cloneFloat(snapshot.Price),
		HighestPrice:  cloneFloat(snapshot.Price),
		Currency:      currency,
		LastUpdatedAt: &now,
		CreatedAt:     now,
	}

	if err = t.repo.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateProduct) {
			// Lost a registration race; surface the winner's record.
			if winner, lookupErr := t.repo.GetProductByASIN(ctx, asin); lookupErr == nil {
				return winner, repository.ErrDuplicateProduct
			}
		}
		return nil, fmt.Errorf("%s: failed to create product: %w", opn, err)
	}

	if snapshot.Price != nil {
		entry := &models.PriceHistoryEntry{
			ProductID:  product.ID,
			Price:      *snapshot.Price,
			Currency:   currency,
			Origin:     models.OriginCreated,
			ObservedAt: now,
		}
		if err = t.repo.AppendHistory(ctx, entry); err != nil {
			return nil, fmt.Errorf("%s: failed to append history entry: %w", opn, err)
		}
	}

	log.InfoContext(ctx, "Registered new product", "asin", asin, "title", product.Title, "price", snapshot.Price)

	return product, nil
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
