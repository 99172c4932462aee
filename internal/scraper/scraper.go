package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lmercier/pricewatch/internal/models"
)

const maxRedirects = 5

// PageScraper is the interface consumed by the tracker service.
type PageScraper interface {
	// Scrape resolves the raw input to a canonical product URL, fetches the
	// page and extracts a snapshot from it.
	Scrape(ctx context.Context, raw string) (models.ProductSnapshot, error)
}

// Scraper fetches product pages from the marketplace and extracts snapshots.
type Scraper struct {
	log    *slog.Logger
	client *http.Client
	host   string
	strict bool
}

// NewScraper creates a Scraper targeting the given marketplace host.
//
// When strict is false, a fetch failure, block page or unparseable page
// degrades to a placeholder snapshot instead of an error; strict mode
// propagates those failures to the caller.
func NewScraper(log *slog.Logger, host string, timeout time.Duration, strict bool) *Scraper {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &Scraper{log: log, client: client, host: host, strict: strict}
}

// Scrape implements the PageScraper interface.
//
// An unresolvable identifier is always an error, even in lenient mode:
// without an ASIN there is nothing to fetch and nothing to fall back to.
func (s *Scraper) Scrape(ctx context.Context, raw string) (models.ProductSnapshot, error) {
	const opn = "scraper.Scrape"
	log := s.log.With("op", opn)

	asin, err := ExtractASIN(raw)
	if err != nil {
		return models.ProductSnapshot{}, fmt.Errorf("%s: %w", opn, err)
	}

	pageURL := CanonicalURL(s.host, asin)
	log.DebugContext(ctx, "Resolved canonical product URL", "asin", asin, "url", pageURL)

	body, err := s.FetchPage(ctx, pageURL)
	if err != nil {
		if s.strict {
			return models.ProductSnapshot{}, fmt.Errorf("%s: %w", opn, err)
		}
		log.WarnContext(ctx, "Fetch failed, falling back to placeholder snapshot", "asin", asin, "error", err)
		return placeholderSnapshot(asin, pageURL), nil
	}

	snapshot, err := s.ExtractFields(asin, pageURL, body)
	if err != nil {
		if s.strict {
			return models.ProductSnapshot{}, fmt.Errorf("%s: %w", opn, err)
		}
		log.WarnContext(ctx, "Extraction failed, falling back to placeholder snapshot", "asin", asin, "error", err)
		return placeholderSnapshot(asin, pageURL), nil
	}

	log.InfoContext(ctx, "Scraped product page", "asin", asin, "title", snapshot.Title, "price", snapshot.Price)

	return snapshot, nil
}

// FetchPage issues a single GET with a realistic browser header set and
// returns the raw page body. There are no retries at this layer: the next
// scheduled sweep is the retry.
func (s *Scraper) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	const opn = "scraper.FetchPage"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request for %s: %w", opn, pageURL, err)
	}

	setBrowserHeaders(req)

	s.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, ErrFetchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s: %w: status code [%d] %s", opn, ErrFetchFailed, res.StatusCode, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to read body: %w", opn, ErrFetchFailed, err)
	}

	s.log.DebugContext(ctx, "Received product page", "status", res.StatusCode, "bytes", len(body))

	return body, nil
}

// setBrowserHeaders mimics a regular desktop browser to reduce the chance of
// being served a block page instead of the product page.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept",
		"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// placeholderSnapshot is the lenient-mode substitute when the real page
// could not be used. It carries no price on purpose: a fabricated price
// would end up in the append-only history.
func placeholderSnapshot(asin, pageURL string) models.ProductSnapshot {
	return models.ProductSnapshot{
		ASIN:     asin,
		Title:    fmt.Sprintf("Product %s", asin),
		Currency: models.DefaultCurrency,
		URL:      pageURL,
	}
}
