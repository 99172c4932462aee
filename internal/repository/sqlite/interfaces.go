package sqlite

import (
	"context"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
)

// ProductRepository is the persistence contract required by the tracker.
type ProductRepository interface {
	GetProductByASIN(ctx context.Context, asin string) (*models.TrackedProduct, error)
	GetProductByID(ctx context.Context, id int64) (*models.TrackedProduct, error)
	CreateProduct(ctx context.Context, product *models.TrackedProduct) error
	SaveProduct(ctx context.Context, product *models.TrackedProduct) error
	ListProducts(ctx context.Context) ([]models.TrackedProduct, error)
	DeleteProduct(ctx context.Context, id int64) error
	AppendHistory(ctx context.Context, entry *models.PriceHistoryEntry) error
	ListHistorySince(ctx context.Context, productID int64, since time.Time) ([]models.PriceHistoryEntry, error)
}

// SubscriptionRepository stores the chats that receive price notifications.
type SubscriptionRepository interface {
	SubscribeChat(ctx context.Context, chatID int64) error
	UnsubscribeChat(ctx context.Context, chatID int64) error
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}
