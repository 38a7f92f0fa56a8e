package uow

import (
	"context"
	"errors"
	"testing"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/pgtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	productID := pgtest.SeedProduct(ctx, t, pool, "Sauvage", "89.90", 5)

	u := NewPostgres(pool, nil)
	err := u.Do(ctx, func(ctx context.Context, repos Repositories) error {
		b, err := repos.Baskets().Create(ctx, "buyer-1")
		if err != nil {
			return err
		}
		_, err = repos.Baskets().AddItem(ctx, b.ID, productID, 2)
		return err
	})
	require.NoError(t, err)

	err = u.Do(ctx, func(ctx context.Context, repos Repositories) error {
		b, err := repos.Baskets().GetByBuyer(ctx, "buyer-1")
		if err != nil {
			return err
		}
		assert.Equal(t, 2, b.TotalQuantity())
		return nil
	})
	require.NoError(t, err)
}

func TestPostgres_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	productID := pgtest.SeedProduct(ctx, t, pool, "Chance", "120.00", 1)

	boom := errors.New("boom")
	u := NewPostgres(pool, nil)
	err := u.Do(ctx, func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Baskets().Create(ctx, "buyer-2"); err != nil {
			return err
		}
		if err := repos.Products().DecrementStock(ctx, productID, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = u.Do(ctx, func(ctx context.Context, repos Repositories) error {
		_, err := repos.Baskets().GetByBuyer(ctx, "buyer-2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		p, err := repos.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}
		assert.Equal(t, 1, p.Stock)
		return nil
	})
	require.NoError(t, err)
}
