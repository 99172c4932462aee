package scraper

import (
	"fmt"
	"regexp"
)

// asinExact matches a bare identifier: exactly 10 uppercase letters/digits.
var asinExact = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// asinPatterns are tried in order against a raw URL; the first match wins.
// Order matters: a URL can coincidentally satisfy more than one template.
var asinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`/ASIN/([A-Z0-9]{10})`),
}

// ExtractASIN derives the canonical product identifier from a raw input
// string, which may be either a bare ASIN or a full product URL.
func ExtractASIN(raw string) (string, error) {
	if asinExact.MatchString(raw) {
		return raw, nil
	}

	for _, pattern := range asinPatterns {
		if match := pattern.FindStringSubmatch(raw); match != nil {
			return match[1], nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrASINNotFound, raw)
}

// CanonicalURL rebuilds the stable fetch target for an ASIN, discarding any
// query parameters and tracking segments the original input carried.
func CanonicalURL(host, asin string) string {
	return fmt.Sprintf("https://%s/dp/%s", host, asin)
}
