package scraper

import "errors"

var (
	// ErrASINNotFound means no product identifier could be derived from the input.
	ErrASINNotFound = errors.New("no ASIN found in input")
	// ErrFetchFailed covers any transport-level failure, including a non-2xx status.
	ErrFetchFailed = errors.New("failed to fetch product page")
	// ErrPageBlocked means the response was implausibly small, which in practice
	// is a captcha or block page rather than a product page.
	ErrPageBlocked = errors.New("page content too small, probably a block page")
	// ErrInsufficientData means parsing produced neither a title nor a price.
	ErrInsufficientData = errors.New("no usable data extracted from page")
)
