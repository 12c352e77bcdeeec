// Package query filters a catalog snapshot by free text, category and seller.
package query

import (
	"strings"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
)

// Reader is the read side of a CatalogStore.
type Reader interface {
	All() []domain.Listing
}

// Engine is stateless; the zero value is ready to use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Search returns the listings of store that satisfy every predicate of state, in
// insertion order. It never fails: an unknown category simply matches nothing.
func (e *Engine) Search(store Reader, state domain.QueryState) []domain.Listing {
	needle := asciiLower(state.SearchText)
	all := store.All()
	result := make([]domain.Listing, 0, len(all))
	for _, l := range all {
		if matches(l, needle, state) {
			result = append(result, l)
		}
	}
	return result
}

// Matches reports whether a single listing satisfies state.
func (e *Engine) Matches(l domain.Listing, state domain.QueryState) bool {
	return matches(l, asciiLower(state.SearchText), state)
}

func matches(l domain.Listing, needle string, state domain.QueryState) bool {
	return matchesText(l, needle) && matchesCategory(l, state.SelectedCategory) && matchesSeller(l, state.SellerID)
}

func matchesText(l domain.Listing, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(asciiLower(l.Title), needle) || strings.Contains(asciiLower(l.Description), needle)
}

func matchesCategory(l domain.Listing, category domain.Category) bool {
	return category == "" || l.Category == category
}

func matchesSeller(l domain.Listing, sellerID string) bool {
	return sellerID == "" || l.SellerID == sellerID
}

// asciiLower folds A-Z only; other bytes, including multi-byte runes, pass through unchanged.
func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
