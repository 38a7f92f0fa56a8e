package seed

import (
	"context"
	"testing"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/memory"
	"perfumeshop/internal/repository/uow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_IsIdempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, Apply(ctx, store, nil))
	require.NoError(t, Apply(ctx, store, nil))

	store.Seed(func(repos uow.Repositories) {
		list, total, err := repos.Products().List(ctx, domain.ProductFilter{}, domain.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, len(products), total)

		brands, err := repos.Lookups().List(ctx, domain.LookupBrand)
		require.NoError(t, err)
		assert.Len(t, brands, 3)

		for _, p := range list {
			assert.NotZero(t, p.BrandID, p.Name)
			assert.NotZero(t, p.CategoryID, p.Name)
			assert.True(t, p.Price.IsPositive(), p.Name)
		}
	})
}
