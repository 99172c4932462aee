// Package mocks provides hand-rolled testify mocks for the service interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
	"github.com/stretchr/testify/mock"
)

// ProductRepository is a mock of sqlite.ProductRepository.
type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) GetProductByASIN(ctx context.Context, asin string) (*models.TrackedProduct, error) {
	args := m.Called(ctx, asin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackedProduct), args.Error(1)
}

func (m *ProductRepository) GetProductByID(ctx context.Context, id int64) (*models.TrackedProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackedProduct), args.Error(1)
}

func (m *ProductRepository) CreateProduct(ctx context.Context, product *models.TrackedProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *ProductRepository) SaveProduct(ctx context.Context, product *models.TrackedProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *ProductRepository) ListProducts(ctx context.Context) ([]models.TrackedProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TrackedProduct), args.Error(1)
}

func (m *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProductRepository) AppendHistory(ctx context.Context, entry *models.PriceHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ProductRepository) ListHistorySince(
	ctx context.Context,
	productID int64,
	since time.Time,
) ([]models.PriceHistoryEntry, error) {
	args := m.Called(ctx, productID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceHistoryEntry), args.Error(1)
}

// PageScraper is a mock of scraper.PageScraper.
type PageScraper struct {
	mock.Mock
}

func (m *PageScraper) Scrape(ctx context.Context, raw string) (models.ProductSnapshot, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(models.ProductSnapshot), args.Error(1)
}

// Tracker is a mock of tracker.Interface.
type Tracker struct {
	mock.Mock
}

func (m *Tracker) Register(ctx context.Context, raw string) (*models.TrackedProduct, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrackedProduct), args.Error(1)
}

func (m *Tracker) UpdateProduct(
	ctx context.Context,
	id int64,
	origin models.HistoryOrigin,
) (*models.UpdateResult, error) {
	args := m.Called(ctx, id, origin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpdateResult), args.Error(1)
}

func (m *Tracker) SweepAll(ctx context.Context) (*models.SweepSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepSummary), args.Error(1)
}

// SubscriptionRepository is a mock of sqlite.SubscriptionRepository.
type SubscriptionRepository struct {
	mock.Mock
}

func (m *SubscriptionRepository) SubscribeChat(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *SubscriptionRepository) UnsubscribeChat(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *SubscriptionRepository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}
