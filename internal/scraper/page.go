package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/lmercier/pricewatch/internal/models"
)

// minPageBytes is the block heuristic: a real product page is always larger
// than this, so anything smaller is treated as a captcha/block page.
const minPageBytes = 10000

// titleProbes are tried in order; the first non-empty trimmed text wins.
var titleProbes = []string{
	"#productTitle",
	"h1#title",
	"h1.a-size-large",
	"#title_feature_div h1",
}

// imageProbes are selector/attribute pairs tried in order. High-resolution
// attributes come before the generic src.
var imageProbes = []struct {
	selector string
	attr     string
}{
	{"#landingImage", "data-old-hires"},
	{"#landingImage", "src"},
	{"#imgBlkFront", "data-a-dynamic-image"},
	{"#imgBlkFront", "src"},
	{".a-dynamic-image", "data-old-hires"},
	{".a-dynamic-image", "src"},
	{"img#main-image", "src"},
}

// priceProbes prefer the explicit offscreen price nodes over the
// visually-rendered fragments, which may only hold the integer part.
var priceProbes = []string{
	`.a-price[data-a-color="price"] .a-offscreen`,
	".a-price.apexPriceToPay .a-offscreen",
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	"#price_inside_buybox",
	".a-price .a-offscreen",
	"span.a-price-whole",
}

// ExtractFields parses raw page content into a snapshot.
//
// It fails with ErrPageBlocked when the content is below the block threshold
// and with ErrInsufficientData when neither a title nor a price was found.
func (s *Scraper) ExtractFields(asin, pageURL string, body []byte) (models.ProductSnapshot, error) {
	const opn = "scraper.ExtractFields"

	if len(body) < minPageBytes {
		return models.ProductSnapshot{}, fmt.Errorf("%s: %w: %d bytes", opn, ErrPageBlocked, len(body))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.ProductSnapshot{}, fmt.Errorf("%s: data cannot be parsed as HTML: %w", opn, err)
	}

	title := firstText(doc, titleProbes)
	image := extractImage(doc)
	price, currency := extractPrice(doc)

	if title == "" && price == nil {
		return models.ProductSnapshot{}, fmt.Errorf("%s: %w", opn, ErrInsufficientData)
	}

	if title == "" {
		title = "Title not available"
	}

	return models.ProductSnapshot{
		ASIN:     asin,
		Title:    title,
		ImageURL: image,
		Price:    price,
		Currency: currency,
		URL:      pageURL,
	}, nil
}

// firstText returns the trimmed text of the first selector that matches a
// non-empty node.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}

	return ""
}

// extractImage resolves the product image URL. Some responsive-image widgets
// store a JSON object mapping URLs to dimensions in the attribute; in that
// case an arbitrary key is taken, without trying to pick the best resolution.
func extractImage(doc *goquery.Document) string {
	var image string
	for _, probe := range imageProbes {
		if val, ok := doc.Find(probe.selector).First().Attr(probe.attr); ok && val != "" {
			image = val
			break
		}
	}

	if strings.HasPrefix(image, "{") {
		var dynamic map[string]json.RawMessage
		if err := json.Unmarshal([]byte(image), &dynamic); err == nil {
			for url := range dynamic {
				return url
			}
		}
		return ""
	}

	return image
}

// extractPrice returns the first parseable price and the currency inferred
// from the original matched text.
func extractPrice(doc *goquery.Document) (*float64, string) {
	raw := firstText(doc, priceProbes)
	if raw == "" {
		return nil, models.DefaultCurrency
	}

	return parsePrice(raw), inferCurrency(raw)
}

// parsePrice cleans a raw price fragment ("1 299,99 €") into a float.
func parsePrice(raw string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, raw)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}

	return &price
}

// inferCurrency checks symbol/code substrings of the uncleaned price text in
// a fixed priority order, defaulting to €.
func inferCurrency(raw string) string {
	switch {
	case strings.Contains(raw, "€"):
		return "€"
	case strings.Contains(raw, "$"):
		return "$"
	case strings.Contains(raw, "£"):
		return "£"
	case strings.Contains(raw, "EUR"):
		return "€"
	default:
		return models.DefaultCurrency
	}
}
