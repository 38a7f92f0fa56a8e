package product

import (
	"context"
	"testing"
	"time"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/pgtest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_CreateListGet(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	brandID, categoryID := lookups(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	created, err := repo.Create(ctx, domain.Product{
		Name:         "Bleu",
		Description:  "Woody aromatic",
		Price:        decimal.RequireFromString("120.50"),
		Stock:        7,
		Volume:       100,
		DateDelivery: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		BrandID:      brandID,
		CategoryID:   categoryID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Chanel", created.Brand)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("120.50")))

	_, err = repo.Create(ctx, domain.Product{Name: "Allure", Price: decimal.NewFromInt(80), BrandID: brandID, CategoryID: categoryID})
	require.NoError(t, err)

	list, total, err := repo.List(ctx, domain.ProductFilter{Query: "ble"}, domain.PageRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	page2, total, err := repo.List(ctx, domain.ProductFilter{}, domain.PageRequest{Page: 2, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page2, 1)
	assert.Equal(t, "Bleu", page2[0].Name)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_DecrementStock(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	id := pgtest.SeedProduct(ctx, t, pool, "Coco", "99.00", 3)

	repo := NewPostgres(pool, nil)
	require.NoError(t, repo.DecrementStock(ctx, id, 2))
	assert.ErrorIs(t, repo.DecrementStock(ctx, id, 2), domain.ErrInsufficientStock)
	assert.ErrorIs(t, repo.DecrementStock(ctx, 9999, 1), domain.ErrNotFound)

	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestPostgres_Upsert(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	brandID, categoryID := lookups(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	first, err := repo.Upsert(ctx, domain.Product{Name: "No 5", Price: decimal.NewFromInt(150), Stock: 1, BrandID: brandID, CategoryID: categoryID})
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, domain.Product{Name: "No 5", Price: decimal.NewFromInt(175), Stock: 4, BrandID: brandID, CategoryID: categoryID})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, second.Stock)
	assert.True(t, second.Price.Equal(decimal.NewFromInt(175)))
}

func lookups(ctx context.Context, t *testing.T, pool *pgxpool.Pool) (int64, int64) {
	t.Helper()
	var brandID, categoryID int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO brands (name) VALUES ('Chanel') RETURNING id`).Scan(&brandID))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ('Eau de Toilette') RETURNING id`).Scan(&categoryID))
	return brandID, categoryID
}
