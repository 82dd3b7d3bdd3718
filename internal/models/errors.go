package models

import (
	"errors"
	"fmt"
)

// Cache-layer error taxonomy. All of these are absorbed at the cache engine
// boundary: they degrade a lookup to a miss (or a store to a no-op) and are
// never propagated to the request path.
var (
	// ErrStoreUnavailable indicates the external key-value store could not
	// be reached or returned a non-miss failure
	ErrStoreUnavailable = errors.New("cache store unavailable")

	// ErrEmbeddingFailure indicates the embedding provider failed after all
	// retry attempts were exhausted
	ErrEmbeddingFailure = errors.New("embedding generation failed")

	// ErrPricingNotFound indicates the requested model has no pricing row.
	// The cost accountant substitutes the configured default model's pricing
	// and logs a warning; the request is still served.
	ErrPricingNotFound = errors.New("no pricing found for model")
)

// DimensionMismatchError reports an attempt to compare vectors of different
// lengths. It is a configuration error: the single comparison fails and the
// candidate is excluded, but the lookup as a whole proceeds.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: %d vs %d", e.Want, e.Got)
}

// IsDimensionMismatch reports whether err is a DimensionMismatchError
func IsDimensionMismatch(err error) bool {
	var dm *DimensionMismatchError
	return errors.As(err, &dm)
}
