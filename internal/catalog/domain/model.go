package domain

import (
	"math"
	"strings"
	"time"
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryBooks       Category = "Books"
	CategoryFurniture   Category = "Furniture"
	CategoryNotes       Category = "Notes"
	CategoryClothing    Category = "Clothing"
	CategorySports      Category = "Sports"
	CategoryKitchen     Category = "Kitchen"
	CategoryOther       Category = "Other"
)

// Categories is the closed category enumeration in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryBooks,
	CategoryFurniture,
	CategoryNotes,
	CategoryClothing,
	CategorySports,
	CategoryKitchen,
	CategoryOther,
}

// IsValid reports whether c is a member of the closed enumeration. Matching is case-sensitive.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// Conditions is ordered from best to worst.
var Conditions = []Condition{
	ConditionNew,
	ConditionLikeNew,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
}

func (c Condition) IsValid() bool {
	return c.Rank() >= 0
}

// Rank returns the position of c in Conditions (0 is "new"), or -1 for unknown values.
func (c Condition) Rank() int {
	for i, known := range Conditions {
		if c == known {
			return i
		}
	}
	return -1
}

// Listing is a single catalog item offered for sale. Listings are never mutated once loaded.
type Listing struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Price       float64   `json:"price" yaml:"price"`
	Category    Category  `json:"category" yaml:"category"`
	Condition   Condition `json:"condition" yaml:"condition"`
	SellerID    string    `json:"seller_id" yaml:"seller_id"`
	SellerName  string    `json:"seller_name" yaml:"seller_name"`
	ImageURL    string    `json:"image_url,omitempty" yaml:"image_url"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Validate checks the per-listing invariants. Uniqueness of IDs is a store-level concern.
func (l Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.ID) == "":
		return &ValidationError{ListingID: l.ID, Field: "id", Reason: "must not be empty"}
	case strings.TrimSpace(l.Title) == "":
		return &ValidationError{ListingID: l.ID, Field: "title", Reason: "must not be empty"}
	case math.IsNaN(l.Price) || math.IsInf(l.Price, 0):
		return &ValidationError{ListingID: l.ID, Field: "price", Reason: "must be a finite number"}
	case l.Price < 0:
		return &ValidationError{ListingID: l.ID, Field: "price", Reason: "must not be negative"}
	case !l.Category.IsValid():
		return &ValidationError{ListingID: l.ID, Field: "category", Reason: "unknown category " + string(l.Category)}
	case !l.Condition.IsValid():
		return &ValidationError{ListingID: l.ID, Field: "condition", Reason: "unknown condition " + string(l.Condition)}
	}
	return nil
}

// QueryState is the caller-owned filter state. Zero values mean "no filter".
type QueryState struct {
	SearchText       string   `json:"q"`
	SelectedCategory Category `json:"category"`
	SellerID         string   `json:"seller_id"`
}

// FacetCounts maps every category to the number of listings in it.
type FacetCounts map[Category]int

// Total returns the sum of all counts.
func (f FacetCounts) Total() int {
	total := 0
	for _, n := range f {
		total += n
	}
	return total
}

// SnapshotLoaded is published after a successful snapshot swap.
type SnapshotLoaded struct {
	Version  string    `json:"version"`
	Listings int       `json:"listings"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}
