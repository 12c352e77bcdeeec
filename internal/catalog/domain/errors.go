package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidListing  = errors.New("invalid listing data")
	ErrListingNotFound = errors.New("listing not found")
	ErrSnapshotSource  = errors.New("snapshot source unavailable")
	ErrCacheMiss       = errors.New("key not found in cache")
)

// ValidationError describes the first listing in a load batch that broke an invariant.
// It unwraps to ErrInvalidListing.
type ValidationError struct {
	Index     int
	ListingID string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.ListingID == "" {
		return fmt.Sprintf("invalid listing at index %d: %s %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid listing %q at index %d: %s %s", e.ListingID, e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidListing
}
