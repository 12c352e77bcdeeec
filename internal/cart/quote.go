package cart

import (
	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
)

// Lookup resolves a listing id against the current snapshot.
type Lookup interface {
	Get(id string) (domain.Listing, error)
}

type Line struct {
	Listing   domain.Listing `json:"listing"`
	Quantity  int            `json:"quantity"`
	LineTotal float64        `json:"line_total"`
}

// Quote is the priced view of a cart. Campus pickup is free, so Total equals Subtotal.
type Quote struct {
	Lines     []Line   `json:"lines"`
	ItemCount int      `json:"item_count"`
	Subtotal  float64  `json:"subtotal"`
	Total     float64  `json:"total"`
	Missing   []string `json:"missing,omitempty"`
}

// Price quotes items against lookup in the order given. Lines with a non-positive
// quantity are dropped. Listings absent from the snapshot are reported in Missing.
func Price(lookup Lookup, items []Item) Quote {
	q := Quote{Lines: make([]Line, 0, len(items))}
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		l, err := lookup.Get(item.ListingID)
		if err != nil {
			q.Missing = append(q.Missing, item.ListingID)
			continue
		}
		line := Line{Listing: l, Quantity: item.Quantity, LineTotal: l.Price * float64(item.Quantity)}
		q.Lines = append(q.Lines, line)
		q.ItemCount += item.Quantity
		q.Subtotal += line.LineTotal
	}
	q.Total = q.Subtotal
	return q
}
