package tracker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
	"github.com/lmercier/pricewatch/internal/repository"
	"github.com/lmercier/pricewatch/internal/scraper"
	"github.com/lmercier/pricewatch/internal/services/tracker"
	"github.com/lmercier/pricewatch/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(v float64) *float64 { return &v }

// trackedProduct builds a product whose four price fields are seeded equal,
// as registration does.
func trackedProduct(id int64, asin string, price float64) *models.TrackedProduct {
	now := time.Now().Add(-time.Hour)
	return &models.TrackedProduct{
		ID:            id,
		ASIN:          asin,
		URL:           "https://www.amazon.fr/dp/" + asin,
		Title:         "Known Title",
		CurrentPrice:  floatPtr(price),
		InitialPrice:  floatPtr(price),
		LowestPrice:   floatPtr(price),
		HighestPrice:  floatPtr(price),
		Currency:      "€",
		LastUpdatedAt: &now,
		CreatedAt:     now,
	}
}

func snapshotWithPrice(asin string, price float64) models.ProductSnapshot {
	return models.ProductSnapshot{
		ASIN:     asin,
		Title:    "Fresh Title",
		ImageURL: "https://img.example/fresh.jpg",
		Price:    floatPtr(price),
		Currency: "€",
		URL:      "https://www.amazon.fr/dp/" + asin,
	}
}

func TestTracker_UpdateProduct_PriceDrop(t *testing.T) {
	ctx := context.Background()
	mRepo := new(mocks.ProductRepository)
	mScraper := new(mocks.PageScraper)

	product := trackedProduct(1, "B08N5WRWNW", 100)

	mRepo.On("GetProductByID", ctx, int64(1)).Return(product, nil)
	mScraper.On("Scrape", ctx, "B08N5WRWNW").Return(snapshotWithPrice("B08N5WRWNW", 80), nil).Once()
	mRepo.On("SaveProduct", ctx, product).Return(nil).Once()
	mRepo.On("AppendHistory", ctx, mock.MatchedBy(func(entry *models.PriceHistoryEntry) bool {
		return entry.ProductID == 1 &&
			entry.Price == 80 &&
			entry.Origin == models.OriginManualUpdate
	})).Return(nil).Once()

	trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

	result, err := trk.UpdateProduct(ctx, 1, models.OriginManualUpdate)
	require.NoError(t, err)

	assert.False(t, result.Unchanged)
	assert.InDelta(t, 100, *result.OldPrice, 0.001)
	assert.InDelta(t, 80, *result.NewPrice, 0.001)
	assert.InDelta(t, -20, result.Delta, 0.001)
	assert.InDelta(t, -20.00, result.VariationPercent, 0.001)
	assert.True(t, result.OnPromotion, "a 20%% drop below the initial price is a promotion")

	// Persisted state honours the aggregates and the fixed initial price.
	assert.InDelta(t, 80, *product.CurrentPrice, 0.001)
	assert.InDelta(t, 100, *product.InitialPrice, 0.001)
	assert.InDelta(t, 80, *product.LowestPrice, 0.001)
	assert.InDelta(t, 100, *product.HighestPrice, 0.001)
	assert.True(t, *product.LowestPrice <= *product.CurrentPrice)
	assert.True(t, *product.CurrentPrice <= *product.HighestPrice)
	assert.Equal(t, "Fresh Title", product.Title)
	assert.Equal(t, "https://img.example/fresh.jpg", product.ImageURL)

	mRepo.AssertExpectations(t)
	mScraper.AssertExpectations(t)
}

func TestTracker_UpdateProduct_PriceRise(t *testing.T) {
	ctx := context.Background()
	mRepo := new(mocks.ProductRepository)
	mScraper := new(mocks.PageScraper)

	product := trackedProduct(2, "B0C1J9NWQD", 100)

	mRepo.On("GetProductByID", ctx, int64(2)).Return(product, nil)
	mScraper.On("Scrape", ctx, "B0C1J9NWQD").Return(snapshotWithPrice("B0C1J9NWQD", 110), nil).Once()
	mRepo.On("SaveProduct", ctx, product).Return(nil).Once()
	mRepo.On("AppendHistory", ctx, mock.MatchedBy(func(entry *models.PriceHistoryEntry) bool {
		return entry.Origin == models.OriginScheduledUpdate && entry.Price == 110
	})).Return(nil).Once()

	trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

	result, err := trk.UpdateProduct(ctx, 2, models.OriginScheduledUpdate)
	require.NoError(t, err)

	assert.InDelta(t, 10.00, result.VariationPercent, 0.001)
	assert.Positive(t, result.Delta)
	assert.False(t, result.OnPromotion)
	assert.InDelta(t, 110, *product.HighestPrice, 0.001)
	assert.InDelta(t, 100, *product.LowestPrice, 0.001)

	mRepo.AssertExpectations(t)
}

func TestTracker_UpdateProduct_UnchangedPrice(t *testing.T) {
	ctx := context.Background()
	mRepo := new(mocks.ProductRepository)
	mScraper := new(mocks.PageScraper)

	product := trackedProduct(3, "B0BDJ7RXQM", 50)
	product.PriceVariation = -3.5
	before := *product.LastUpdatedAt

	mRepo.On("GetProductByID", ctx, int64(3)).Return(product, nil)
	mScraper.On("Scrape", ctx, "B0BDJ7RXQM").Return(snapshotWithPrice("B0BDJ7RXQM", 50), nil).Once()
	// Only the timestamp bump is persisted; no history entry is appended.
	mRepo.On("SaveProduct", ctx, product).Return(nil).Once()

	trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

	result, err := trk.UpdateProduct(ctx, 3, models.OriginScheduledUpdate)
	require.NoError(t, err)

	assert.True(t, result.Unchanged)
	assert.InDelta(t, -3.5, product.PriceVariation, 0.001, "variation must not change on an unchanged price")
	assert.InDelta(t, 50, *product.LowestPrice, 0.001)
	assert.InDelta(t, 50, *product.HighestPrice, 0.001)
	assert.True(t, product.LastUpdatedAt.After(before))

	mRepo.AssertExpectations(t)
	mRepo.AssertNotCalled(t, "AppendHistory", mock.Anything, mock.Anything)
}

func TestTracker_UpdateProduct_PlaceholderSnapshotKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	mRepo := new(mocks.ProductRepository)
	mScraper := new(mocks.PageScraper)

	product := trackedProduct(4, "B000000010", 30)
	product.ImageURL = "https://img.example/known.jpg"

	// Lenient scraper returned a placeholder without price or image.
	placeholder := models.ProductSnapshot{
		ASIN:     "B000000010",
		Title:    "Product B000000010",
		Currency: "€",
		URL:      "https://www.amazon.fr/dp/B000000010",
	}
	mRepo.On("GetProductByID", ctx, int64(4)).Return(product, nil)
	mScraper.On("Scrape", ctx, "B000000010").Return(placeholder, nil).Once()
	mRepo.On("SaveProduct", ctx, product).Return(nil).Once()

	trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

	result, err := trk.UpdateProduct(ctx, 4, models.OriginScheduledUpdate)
	require.NoError(t, err)

	assert.True(t, result.Unchanged)
	// A partial extraction must not erase previously known metadata.
	assert.Equal(t, "https://img.example/known.jpg", product.ImageURL)
	assert.InDelta(t, 30, *product.CurrentPrice, 0.001)

	mRepo.AssertExpectations(t)
}

func TestTracker_UpdateProduct_FirstRealObservationSeedsPrices(t *testing.T) {
	ctx := context.Background()
	mRepo := new(mocks.ProductRepository)
	mScraper := new(mocks.PageScraper)

	// Registered while blocked: no prices known yet.
	now := time.Now()
	product := &models.TrackedProduct{
		ID:        5,
		ASIN:      "B000000011",
		URL:       "https://www.amazon.fr/dp/B000000011",
		Title:     "Product B000000011",
		Currency:  "€",
		CreatedAt: now,
	}

	mRepo.On("GetProductByID", ctx, int64(5)).Return(product, nil)
	mScraper.On("Scrape", ctx, "B000000011").Return(snapshotWithPrice("B000000011", 42), nil).Once()
	mRepo.On("SaveProduct", ctx, product).Return(nil).Once()
	mRepo.On("AppendHistory", ctx, mock.Anything).Return(nil).Once()

	trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

	result, err := trk.UpdateProduct(ctx, 5, models.OriginScheduledUpdate)
	require.NoError(t, err)

	assert.False(t, result.Unchanged)
	assert.Zero(t, result.VariationPercent)
	assert.InDelta(t, 42, *product.CurrentPrice, 0.001)
	assert.InDelta(t, 42, *product.InitialPrice, 0.001)
	assert.InDelta(t, 42, *product.LowestPrice, 0.001)
	assert.InDelta(t, 42, *product.HighestPrice, 0.001)

	mRepo.AssertExpectations(t)
}

func TestTracker_UpdateProduct_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	mRepo := new(mocks.ProductRepository)
	mScraper := new(mocks.PageScraper)

	mRepo.On("GetProductByID", ctx, int64(99)).Return(nil, repository.ErrProductNotFound)

	trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

	_, err := trk.UpdateProduct(ctx, 99, models.OriginManualUpdate)
	require.ErrorIs(t, err, repository.ErrProductNotFound)

	mScraper.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
}

func TestTracker_UpdateProduct_ScrapeError(t *testing.T) {
	ctx := context.Background()
	mRepo := new(mocks.ProductRepository)
	mScraper := new(mocks.PageScraper)

	product := trackedProduct(6, "B000000012", 10)

	mRepo.On("GetProductByID", ctx, int64(6)).Return(product, nil)
	mScraper.On("Scrape", ctx, "B000000012").
		Return(models.ProductSnapshot{}, scraper.ErrFetchFailed).Once()

	trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

	_, err := trk.UpdateProduct(ctx, 6, models.OriginScheduledUpdate)
	require.ErrorIs(t, err, scraper.ErrFetchFailed)

	mRepo.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything)
}

func TestTracker_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success with known price", func(t *testing.T) {
		mRepo := new(mocks.ProductRepository)
		mScraper := new(mocks.PageScraper)

		mRepo.On("GetProductByASIN", ctx, "B08N5WRWNW").Return(nil, repository.ErrProductNotFound).Once()
		mScraper.On("Scrape", ctx, "B08N5WRWNW").Return(snapshotWithPrice("B08N5WRWNW", 329.99), nil).Once()
		mRepo.On("CreateProduct", ctx, mock.AnythingOfType("*models.TrackedProduct")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.TrackedProduct).ID = 7
			}).Return(nil).Once()
		mRepo.On("AppendHistory", ctx, mock.MatchedBy(func(entry *models.PriceHistoryEntry) bool {
			return entry.ProductID == 7 &&
				entry.Price == 329.99 &&
				entry.Origin == models.OriginCreated
		})).Return(nil).Once()

		trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

		product, err := trk.Register(ctx, "https://www.amazon.fr/Sony/dp/B08N5WRWNW?tag=aff")
		require.NoError(t, err)

		assert.Equal(t, int64(7), product.ID)
		assert.Equal(t, "B08N5WRWNW", product.ASIN)
		assert.Equal(t, "https://www.amazon.fr/dp/B08N5WRWNW", product.URL)
		assert.InDelta(t, 329.99, *product.CurrentPrice, 0.001)
		assert.InDelta(t, 329.99, *product.InitialPrice, 0.001)
		assert.InDelta(t, 329.99, *product.LowestPrice, 0.001)
		assert.InDelta(t, 329.99, *product.HighestPrice, 0.001)

		mRepo.AssertExpectations(t)
		mScraper.AssertExpectations(t)
	})

	t.Run("duplicate reports conflict with existing record", func(t *testing.T) {
		mRepo := new(mocks.ProductRepository)
		mScraper := new(mocks.PageScraper)

		existing := trackedProduct(8, "B08N5WRWNW", 100)
		mRepo.On("GetProductByASIN", ctx, "B08N5WRWNW").Return(existing, nil).Once()

		trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

		product, err := trk.Register(ctx, "B08N5WRWNW")
		require.ErrorIs(t, err, repository.ErrDuplicateProduct)
		assert.Equal(t, existing, product)

		mScraper.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
	})

	t.Run("unresolvable identifier aborts registration", func(t *testing.T) {
		mRepo := new(mocks.ProductRepository)
		mScraper := new(mocks.PageScraper)

		trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

		_, err := trk.Register(ctx, "https://site.example/deals/today")
		require.ErrorIs(t, err, scraper.ErrASINNotFound)

		mRepo.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})

	t.Run("placeholder snapshot registers without history", func(t *testing.T) {
		mRepo := new(mocks.ProductRepository)
		mScraper := new(mocks.PageScraper)

		placeholder := models.ProductSnapshot{
			ASIN:     "B000000013",
			Title:    "Product B000000013",
			Currency: "€",
			URL:      "https://www.amazon.fr/dp/B000000013",
		}
		mRepo.On("GetProductByASIN", ctx, "B000000013").Return(nil, repository.ErrProductNotFound).Once()
		mScraper.On("Scrape", ctx, "B000000013").Return(placeholder, nil).Once()
		mRepo.On("CreateProduct", ctx, mock.AnythingOfType("*models.TrackedProduct")).Return(nil).Once()

		trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

		product, err := trk.Register(ctx, "B000000013")
		require.NoError(t, err)

		assert.Nil(t, product.CurrentPrice)
		assert.Nil(t, product.InitialPrice)

		mRepo.AssertNotCalled(t, "AppendHistory", mock.Anything, mock.Anything)
	})
}

func TestTracker_SweepAll(t *testing.T) {
	ctx := context.Background()

	t.Run("middle item failure does not stop the sweep", func(t *testing.T) {
		mRepo := new(mocks.ProductRepository)
		mScraper := new(mocks.PageScraper)

		product1 := trackedProduct(1, "B000000101", 10)
		product2 := trackedProduct(2, "B000000102", 20)
		product3 := trackedProduct(3, "B000000103", 30)

		mRepo.On("ListProducts", ctx).
			Return([]models.TrackedProduct{*product1, *product2, *product3}, nil).Once()

		mRepo.On("GetProductByID", ctx, int64(1)).Return(product1, nil)
		mRepo.On("GetProductByID", ctx, int64(2)).Return(product2, nil)
		mRepo.On("GetProductByID", ctx, int64(3)).Return(product3, nil)

		mScraper.On("Scrape", ctx, "B000000101").Return(snapshotWithPrice("B000000101", 9), nil).Once()
		mScraper.On("Scrape", ctx, "B000000102").
			Return(models.ProductSnapshot{}, scraper.ErrFetchFailed).Once()
		mScraper.On("Scrape", ctx, "B000000103").Return(snapshotWithPrice("B000000103", 33), nil).Once()

		mRepo.On("SaveProduct", ctx, product1).Return(nil).Once()
		mRepo.On("SaveProduct", ctx, product3).Return(nil).Once()
		mRepo.On("AppendHistory", ctx, mock.Anything).Return(nil).Twice()

		trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

		summary, err := trk.SweepAll(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, summary.Total)
		assert.Equal(t, 2, summary.Succeeded)
		assert.Equal(t, 1, summary.Failed)
		require.Len(t, summary.Results, 3)

		// Results preserve the iteration order of the product set.
		assert.Equal(t, "B000000101", summary.Results[0].ASIN)
		assert.Equal(t, "B000000102", summary.Results[1].ASIN)
		assert.Equal(t, "B000000103", summary.Results[2].ASIN)
		assert.True(t, summary.Results[0].OK())
		assert.False(t, summary.Results[1].OK())
		assert.True(t, summary.Results[2].OK())
		assert.Contains(t, summary.Results[1].Err, scraper.ErrFetchFailed.Error())

		// Items 1 and 3 really were updated.
		assert.InDelta(t, 9, *product1.CurrentPrice, 0.001)
		assert.InDelta(t, 20, *product2.CurrentPrice, 0.001)
		assert.InDelta(t, 33, *product3.CurrentPrice, 0.001)

		mRepo.AssertExpectations(t)
		mScraper.AssertExpectations(t)
	})

	t.Run("empty set short-circuits", func(t *testing.T) {
		mRepo := new(mocks.ProductRepository)
		mScraper := new(mocks.PageScraper)

		mRepo.On("ListProducts", ctx).Return([]models.TrackedProduct{}, nil).Once()

		trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

		summary, err := trk.SweepAll(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, summary.Total)
		assert.Equal(t, 0, summary.Succeeded)
		assert.Equal(t, 0, summary.Failed)
		assert.Empty(t, summary.Results)

		mScraper.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
	})

	t.Run("listing failure aborts the sweep", func(t *testing.T) {
		mRepo := new(mocks.ProductRepository)
		mScraper := new(mocks.PageScraper)

		mRepo.On("ListProducts", ctx).Return(nil, assert.AnError).Once()

		trk := tracker.NewTracker(testLogger(), mScraper, mRepo, 0)

		_, err := trk.SweepAll(ctx)
		require.ErrorIs(t, err, assert.AnError)
	})
}
