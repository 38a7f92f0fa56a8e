package memory

import (
	"context"
	"testing"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/uow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasketAddItem_MergesThroughDomainRule(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		b, err := repos.Baskets().Create(ctx, "anon-1")
		require.NoError(t, err)

		first, err := repos.Baskets().AddItem(ctx, b.ID, 7, 2)
		require.NoError(t, err)
		assert.NotZero(t, first.ID)
		assert.False(t, first.CreatedAt.IsZero())

		second, err := repos.Baskets().AddItem(ctx, b.ID, 7, 3)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 5, second.Quantity)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)

		other, err := repos.Baskets().AddItem(ctx, b.ID, 8, 1)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)

		_, err = repos.Baskets().AddItem(ctx, b.ID, 7, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		_, err = repos.Baskets().AddItem(ctx, b.ID+100, 7, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		fetched, err := repos.Baskets().GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, fetched.Items, 2)
		assert.Equal(t, 6, fetched.TotalQuantity())
		return nil
	})
	require.NoError(t, err)
}
