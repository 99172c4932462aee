package models

// ProductSnapshot is a single point-in-time extraction result for a product page.
// Price is nil when no price could be parsed from the page.
type ProductSnapshot struct {
	ASIN     string
	Title    string
	ImageURL string
	Price    *float64
	Currency string
	URL      string
}

// Placeholder reports whether the snapshot was fabricated because the page
// could not be fetched or parsed.
func (s ProductSnapshot) Placeholder() bool {
	return s.Price == nil && s.ImageURL == ""
}

// UpdateResult describes what a single reconciliation did to a product.
type UpdateResult struct {
	ASIN             string   `json:"asin"`
	Unchanged        bool     `json:"unchanged"`
	OldPrice         *float64 `json:"old_price"`
	NewPrice         *float64 `json:"new_price"`
	Delta            float64  `json:"delta"`
	VariationPercent float64  `json:"variation_percent"`
	OnPromotion      bool     `json:"on_promotion"`
	Currency         string   `json:"currency"`
}

// SweepItemResult is the outcome of one product within a sweep.
type SweepItemResult struct {
	ASIN   string        `json:"asin"`
	Err    string        `json:"error,omitempty"`
	Result *UpdateResult `json:"result,omitempty"`
}

// OK reports whether the item was processed without error.
func (r SweepItemResult) OK() bool { return r.Err == "" }

// SweepSummary aggregates one full pass over all tracked products.
// Results preserve the iteration order of the product set at sweep start.
type SweepSummary struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []SweepItemResult `json:"results"`
}
