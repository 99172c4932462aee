package repository

import "errors"

var (
	// ErrProductNotFound is returned when no tracked product matches the key.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateProduct is returned when the ASIN is already tracked.
	ErrDuplicateProduct = errors.New("product already tracked")
)
