package cart

import (
	"testing"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddItemMerges(t *testing.T) {
	c := New("1")
	require.NoError(t, c.AddItem("2", 1))
	require.NoError(t, c.AddItem("4", 1))
	require.NoError(t, c.AddItem("2", 2))

	require.Len(t, c.Items, 2)
	assert.Equal(t, Item{ListingID: "2", Quantity: 3}, c.Items[0])
	assert.Equal(t, 4, c.Count())
}

func TestCart_AddItemRejectsBadInput(t *testing.T) {
	c := New("1")
	assert.ErrorIs(t, c.AddItem("2", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddItem("", 1), ErrEmptyListingID)

	require.NoError(t, c.AddItem("2", 1))
	assert.ErrorIs(t, c.AddItem("2", -1), ErrInvalidQuantity)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestCart_UpdateItemQuantity(t *testing.T) {
	c := New("1")
	require.NoError(t, c.AddItem("2", 1))
	require.NoError(t, c.AddItem("4", 1))

	require.NoError(t, c.UpdateItemQuantity("2", 5))
	assert.Equal(t, 5, c.Items[0].Quantity)

	require.NoError(t, c.UpdateItemQuantity("2", 0))
	require.Len(t, c.Items, 1)
	assert.Equal(t, "4", c.Items[0].ListingID)

	assert.ErrorIs(t, c.UpdateItemQuantity("99", 1), ErrItemNotFound)
}

func TestCart_RemoveItem(t *testing.T) {
	c := New("1")
	require.NoError(t, c.AddItem("2", 1))
	require.NoError(t, c.AddItem("4", 1))

	require.NoError(t, c.RemoveItem("2"))
	assert.ErrorIs(t, c.RemoveItem("2"), ErrItemNotFound)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Count())
}

func TestFromItems(t *testing.T) {
	c, err := FromItems("1", []Item{
		{ListingID: "2", Quantity: 1},
		{ListingID: "4", Quantity: 1},
		{ListingID: "2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, Item{ListingID: "2", Quantity: 2}, c.Items[0])
	assert.Equal(t, Item{ListingID: "4", Quantity: 1}, c.Items[1])
	assert.Equal(t, "1", c.UserID)

	empty, err := FromItems("", nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestFromItems_Rejects(t *testing.T) {
	_, err := FromItems("", []Item{{ListingID: "2", Quantity: -1}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = FromItems("", []Item{{ListingID: "2", Quantity: 1}, {ListingID: "2", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = FromItems("", []Item{{ListingID: "", Quantity: 1}})
	assert.ErrorIs(t, err, ErrEmptyListingID)
}

type mapLookup map[string]domain.Listing

func (m mapLookup) Get(id string) (domain.Listing, error) {
	l, ok := m[id]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return l, nil
}

func TestPrice(t *testing.T) {
	lookup := mapLookup{
		"2": {ID: "2", Title: "Calculus Textbook", Price: 45},
		"4": {ID: "4", Title: "Physics 101 Notes", Price: 25},
	}

	q := Price(lookup, []Item{
		{ListingID: "2", Quantity: 2},
		{ListingID: "gone", Quantity: 1},
		{ListingID: "4", Quantity: 1},
		{ListingID: "4", Quantity: 0},
	})

	require.Len(t, q.Lines, 2)
	assert.Equal(t, "2", q.Lines[0].Listing.ID)
	assert.Equal(t, 90.0, q.Lines[0].LineTotal)
	assert.Equal(t, "4", q.Lines[1].Listing.ID)
	assert.Equal(t, 3, q.ItemCount)
	assert.Equal(t, 115.0, q.Subtotal)
	assert.Equal(t, q.Subtotal, q.Total)
	assert.Equal(t, []string{"gone"}, q.Missing)
}

func TestPrice_Empty(t *testing.T) {
	q := Price(mapLookup{}, nil)
	assert.NotNil(t, q.Lines)
	assert.Empty(t, q.Lines)
	assert.Zero(t, q.Total)
	assert.Nil(t, q.Missing)
}
