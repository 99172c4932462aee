package models

import "time"

// DefaultCurrency is used whenever no currency could be inferred from a page.
const DefaultCurrency = "€"

// TrackedProduct is one product whose price is being followed over time.
// Price fields are pointers because a product registered while the
// marketplace blocks us has no known price until the first real observation.
type TrackedProduct struct {
	ID             int64      `json:"id"`
	ASIN           string     `json:"asin"`
	URL            string     `json:"url"`
	Title          string     `json:"title,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	CurrentPrice   *float64   `json:"current_price"`
	InitialPrice   *float64   `json:"initial_price"`
	LowestPrice    *float64   `json:"lowest_price"`
	HighestPrice   *float64   `json:"highest_price"`
	Currency       string     `json:"currency"`
	OnPromotion    bool       `json:"on_promotion"`
	PriceVariation float64    `json:"price_variation"`
	LastUpdatedAt  *time.Time `json:"last_updated_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HistoryOrigin tags a history entry with the operation that produced it.
type HistoryOrigin string

const (
	OriginCreated         HistoryOrigin = "created"
	OriginScheduledUpdate HistoryOrigin = "scheduled-update"
	OriginManualUpdate    HistoryOrigin = "manual-update"
)

// PriceHistoryEntry is one recorded price observation. Entries are
// append-only: they are never mutated after being written.
type PriceHistoryEntry struct {
	ID         int64         `json:"id"`
	ProductID  int64         `json:"product_id"`
	Price      float64       `json:"price"`
	Currency   string        `json:"currency"`
	Origin     HistoryOrigin `json:"origin"`
	ObservedAt time.Time     `json:"observed_at"`
}
