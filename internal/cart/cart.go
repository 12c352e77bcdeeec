// Package cart prices a shopping cart against the current catalog snapshot.
package cart

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("cart item quantity must be positive")
	ErrEmptyListingID  = errors.New("listing ID cannot be empty for cart item")
)

type Item struct {
	ListingID string `json:"listing_id"`
	Quantity  int    `json:"quantity"`
}

func NewItem(listingID string, quantity int) (Item, error) {
	if listingID == "" {
		return Item{}, ErrEmptyListingID
	}
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	return Item{ListingID: listingID, Quantity: quantity}, nil
}

// Cart is owned by the caller; the service never stores it.
type Cart struct {
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(userID string) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     make([]Item, 0),
		UpdatedAt: time.Now().UTC(),
	}
}

// FromItems rebuilds a caller-held cart. Lines for the same listing are merged.
func FromItems(userID string, items []Item) (*Cart, error) {
	c := New(userID)
	for _, item := range items {
		if err := c.AddItem(item.ListingID, item.Quantity); err != nil {
			return nil, fmt.Errorf("listing %q: %w", item.ListingID, err)
		}
	}
	return c, nil
}

func (c *Cart) indexOf(listingID string) int {
	for i, item := range c.Items {
		if item.ListingID == listingID {
			return i
		}
	}
	return -1
}

// AddItem merges quantity into an existing line for the same listing.
func (c *Cart) AddItem(listingID string, quantity int) error {
	if i := c.indexOf(listingID); i >= 0 {
		if quantity <= 0 {
			return ErrInvalidQuantity
		}
		c.Items[i].Quantity += quantity
	} else {
		item, err := NewItem(listingID, quantity)
		if err != nil {
			return err
		}
		c.Items = append(c.Items, item)
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateItemQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) UpdateItemQuantity(listingID string, quantity int) error {
	i := c.indexOf(listingID)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = quantity
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (c *Cart) RemoveItem(listingID string) error {
	i := c.indexOf(listingID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Count is the total number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
