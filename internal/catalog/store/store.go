// Package store holds the immutable listing snapshot served by the query engine.
package store

import (
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/google/uuid"
)

// Snapshot is one loaded generation of the catalog. It is never modified after publication.
type Snapshot struct {
	Version  string
	LoadedAt time.Time
	listings []domain.Listing
	byID     map[string]int
}

// Store is the CatalogStore. Readers always see a complete snapshot; Load swaps
// snapshots atomically and keeps the previous one when validation fails.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func New() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{byID: map[string]int{}})
	return s
}

// Load validates every listing and replaces the snapshot. It is all-or-nothing:
// on a *domain.ValidationError the store keeps its prior contents.
func (s *Store) Load(listings []domain.Listing) error {
	byID := make(map[string]int, len(listings))
	for i, l := range listings {
		if err := l.Validate(); err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				vErr.Index = i
			}
			return err
		}
		if _, dup := byID[l.ID]; dup {
			return &domain.ValidationError{Index: i, ListingID: l.ID, Field: "id", Reason: "is duplicated"}
		}
		byID[l.ID] = i
	}

	s.current.Store(&Snapshot{
		Version:  uuid.NewString(),
		LoadedAt: time.Now().UTC(),
		listings: slices.Clone(listings),
		byID:     byID,
	})
	return nil
}

// All returns the listings in insertion order. The returned slice is the caller's own copy.
func (s *Store) All() []domain.Listing {
	return slices.Clone(s.current.Load().listings)
}

func (s *Store) Get(id string) (domain.Listing, error) {
	snap := s.current.Load()
	i, ok := snap.byID[id]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return snap.listings[i], nil
}

func (s *Store) Len() int {
	return len(s.current.Load().listings)
}

// Version identifies the current snapshot. It is empty until the first successful Load.
func (s *Store) Version() string {
	return s.current.Load().Version
}

func (s *Store) LoadedAt() time.Time {
	return s.current.Load().LoadedAt
}
