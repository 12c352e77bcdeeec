// Package dashboard builds the per-user summary shown on the account page.
package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidPurchase = errors.New("invalid purchase data")
)

type PurchaseStatus string

const (
	StatusCompleted PurchaseStatus = "completed"
	StatusPending   PurchaseStatus = "pending"
	StatusCancelled PurchaseStatus = "cancelled"
)

func (s PurchaseStatus) IsValid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusCancelled:
		return true
	}
	return false
}

type Profile struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Campus    string    `json:"campus" yaml:"campus"`
	AvatarURL string    `json:"avatar_url,omitempty" yaml:"avatar_url"`
	JoinedAt  time.Time `json:"joined_at" yaml:"joined_at"`
}

type Purchase struct {
	ID          string         `json:"id" yaml:"id"`
	BuyerID     string         `json:"buyer_id" yaml:"buyer_id"`
	ListingID   string         `json:"listing_id" yaml:"listing_id"`
	PurchasedAt time.Time      `json:"purchased_at" yaml:"purchased_at"`
	Amount      float64        `json:"amount" yaml:"amount"`
	Status      PurchaseStatus `json:"status" yaml:"status"`
}

// Directory is a read-only index of profiles and their purchase history.
type Directory struct {
	profiles  map[string]Profile
	purchases map[string][]Purchase
}

func NewDirectory(profiles []Profile, purchases []Purchase) (*Directory, error) {
	d := &Directory{
		profiles:  make(map[string]Profile, len(profiles)),
		purchases: make(map[string][]Purchase),
	}
	for _, p := range profiles {
		if p.ID == "" {
			return nil, errors.New("dashboard: profile id must not be empty")
		}
		if _, dup := d.profiles[p.ID]; dup {
			return nil, fmt.Errorf("dashboard: duplicate profile id %q", p.ID)
		}
		d.profiles[p.ID] = p
	}
	for _, p := range purchases {
		if !p.Status.IsValid() {
			return nil, fmt.Errorf("%w: purchase %q has status %q", ErrInvalidPurchase, p.ID, p.Status)
		}
		if p.Amount < 0 {
			return nil, fmt.Errorf("%w: purchase %q has negative amount", ErrInvalidPurchase, p.ID)
		}
		d.purchases[p.BuyerID] = append(d.purchases[p.BuyerID], p)
	}
	return d, nil
}

func (d *Directory) Profile(id string) (Profile, error) {
	p, ok := d.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (d *Directory) Purchases(buyerID string) []Purchase {
	return slices.Clone(d.purchases[buyerID])
}

type Summary struct {
	Profile         Profile          `json:"profile"`
	ItemsListed     int              `json:"items_listed"`
	ItemsPurchased  int              `json:"items_purchased"`
	TotalSpent      float64          `json:"total_spent"`
	MemberSince     string           `json:"member_since"`
	RecentListings  []domain.Listing `json:"recent_listings"`
	RecentPurchases []Purchase       `json:"recent_purchases"`
}

// Summarize builds the dashboard for profile from that user's listings and purchases.
// Recent slices hold the first recent entries in the order given. TotalSpent counts
// every purchase whatever its status.
func Summarize(profile Profile, listings []domain.Listing, purchases []Purchase, recent int) Summary {
	if recent < 0 {
		recent = 0
	}
	s := Summary{
		Profile:         profile,
		ItemsListed:     len(listings),
		ItemsPurchased:  len(purchases),
		TotalSpent:      totalSpent(purchases),
		MemberSince:     profile.JoinedAt.Format("Jan 2006"),
		RecentListings:  slices.Clone(listings[:min(recent, len(listings))]),
		RecentPurchases: slices.Clone(purchases[:min(recent, len(purchases))]),
	}
	if s.RecentListings == nil {
		s.RecentListings = []domain.Listing{}
	}
	if s.RecentPurchases == nil {
		s.RecentPurchases = []Purchase{}
	}
	return s
}

func totalSpent(purchases []Purchase) float64 {
	var total float64
	for _, p := range purchases {
		total += p.Amount
	}
	return total
}

// ListingLookup resolves the listing a purchase refers to.
type ListingLookup interface {
	Get(id string) (domain.Listing, error)
}

// HistoryEntry is one purchase with the listing it bought, when that listing is
// still in the snapshot.
type HistoryEntry struct {
	Purchase
	Listing *domain.Listing `json:"listing,omitempty"`
}

// History is the purchases page of one buyer.
type History struct {
	Purchases  []HistoryEntry `json:"purchases"`
	Count      int            `json:"count"`
	TotalSpent float64        `json:"total_spent"`
}

// BuildHistory lists purchases in the order given.
func BuildHistory(purchases []Purchase, lookup ListingLookup) History {
	h := History{
		Purchases:  make([]HistoryEntry, 0, len(purchases)),
		Count:      len(purchases),
		TotalSpent: totalSpent(purchases),
	}
	for _, p := range purchases {
		entry := HistoryEntry{Purchase: p}
		if lookup != nil {
			if l, err := lookup.Get(p.ListingID); err == nil {
				entry.Listing = &l
			}
		}
		h.Purchases = append(h.Purchases, entry)
	}
	return h
}
