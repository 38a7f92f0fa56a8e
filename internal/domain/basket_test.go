package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasketAddItem_MergesSameProduct(t *testing.T) {
	b := &Basket{ID: 7, BuyerID: "buyer"}

	_, err := b.AddItem(1, 2)
	require.NoError(t, err)
	item, err := b.AddItem(1, 3)
	require.NoError(t, err)

	assert.Len(t, b.Items, 1)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 5, b.QuantityOf(1))
}

func TestBasketAddItem_AppendsNewProduct(t *testing.T) {
	b := &Basket{ID: 7}
	_, err := b.AddItem(1, 1)
	require.NoError(t, err)
	item, err := b.AddItem(2, 4)
	require.NoError(t, err)

	assert.Len(t, b.Items, 2)
	assert.Equal(t, int64(7), item.BasketID)
	assert.Equal(t, 5, b.TotalQuantity())
}

func TestBasketAddItem_RejectsNonPositive(t *testing.T) {
	b := &Basket{}
	_, err := b.AddItem(1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, b.Items)
}

func TestBasketNilHelpers(t *testing.T) {
	var b *Basket
	assert.Equal(t, 0, b.QuantityOf(1))
	assert.Equal(t, 0, b.TotalQuantity())
}
