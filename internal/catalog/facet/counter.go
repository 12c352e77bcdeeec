// Package facet derives per-category counts for the category chips.
package facet

import (
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
)

type Reader interface {
	All() []domain.Listing
}

// Entry is one category chip.
type Entry struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

type Counter struct{}

func NewCounter() *Counter {
	return &Counter{}
}

// Counts tallies the whole store, independent of any active filter. Every category
// in the enumeration is present, zero counts included.
func (c *Counter) Counts(store Reader) domain.FacetCounts {
	counts := make(domain.FacetCounts, len(domain.Categories))
	for _, cat := range domain.Categories {
		counts[cat] = 0
	}
	for _, l := range store.All() {
		counts[l.Category]++
	}
	return counts
}

// Entries orders counts by the category enumeration. Categories missing from counts get zero.
func Entries(counts domain.FacetCounts) []Entry {
	entries := make([]Entry, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		entries = append(entries, Entry{Category: cat, Count: counts[cat]})
	}
	return entries
}
