package mongodb

import (
	"time"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
)

// listingDocument is the stored shape of a listing. Position fixes the catalog
// order, since Mongo gives no natural order guarantee.
type listingDocument struct {
	ID          string    `bson:"_id"`
	Position    int64     `bson:"position"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Price       float64   `bson:"price"`
	Category    string    `bson:"category"`
	Condition   string    `bson:"condition"`
	SellerID    string    `bson:"seller_id"`
	SellerName  string    `bson:"seller_name"`
	ImageURL    string    `bson:"image_url,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toListingDocument(position int64, l domain.Listing) listingDocument {
	return listingDocument{
		ID:          l.ID,
		Position:    position,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    string(l.Category),
		Condition:   string(l.Condition),
		SellerID:    l.SellerID,
		SellerName:  l.SellerName,
		ImageURL:    l.ImageURL,
		CreatedAt:   l.CreatedAt,
	}
}

// toDomainListing does not validate; the store rejects bad documents on Load.
func toDomainListing(d listingDocument) domain.Listing {
	return domain.Listing{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Category:    domain.Category(d.Category),
		Condition:   domain.Condition(d.Condition),
		SellerID:    d.SellerID,
		SellerName:  d.SellerName,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}
