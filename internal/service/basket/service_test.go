package basket

import (
	"context"
	"testing"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/memory"
	"perfumeshop/internal/repository/uow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return New(store, nil), store
}

func seedProduct(t *testing.T, store *memory.Store, name string, stock int) int64 {
	t.Helper()
	var id int64
	store.Seed(func(repos uow.Repositories) {
		p, err := repos.Products().Create(context.Background(), domain.Product{
			Name: name, Price: decimal.NewFromInt(50), Stock: stock, BrandID: 1, CategoryID: 1,
		})
		require.NoError(t, err)
		id = p.ID
	})
	return id
}

func TestAddItemToBasket_CreatesExactlyOneBasket(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 10)

	_, err := svc.GetBasket(ctx, "anon-1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	item, err := svc.AddItemToBasket(ctx, "anon-1", p, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 1, store.BasketCount())

	_, err = svc.AddItemToBasket(ctx, "anon-1", p, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.BasketCount())
}

func TestAddItemToBasket_SameProductIncrementsQuantity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 10)

	_, err := svc.AddItemToBasket(ctx, "anon-1", p, 2)
	require.NoError(t, err)
	item, err := svc.AddItemToBasket(ctx, "anon-1", p, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 1, store.ItemCount())

	b, err := svc.GetBasket(ctx, "anon-1")
	require.NoError(t, err)
	assert.Equal(t, 5, b.QuantityOf(p))
}

func TestAddItemToBasket_Validation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 10)

	_, err := svc.AddItemToBasket(ctx, "anon-1", p, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.AddItemToBasket(ctx, " ", p, 1)
	assert.ErrorIs(t, err, ErrBuyerRequired)

	_, err = svc.AddItemToBasket(ctx, "anon-1", p+999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, store.BasketCount(), "failed add must not leave a basket behind")
}

func TestBasketToStockRatio(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Chance", 5)

	av, err := svc.BasketToStockRatio(ctx, "anon-1", p, 5)
	require.NoError(t, err)
	assert.True(t, av.IsAvailable)
	assert.Equal(t, 5, av.Remaining)

	_, err = svc.AddItemToBasket(ctx, "anon-1", p, 3)
	require.NoError(t, err)

	av, err = svc.BasketToStockRatio(ctx, "anon-1", p, 3)
	require.NoError(t, err)
	assert.False(t, av.IsAvailable)
	assert.Equal(t, "Chance", av.ProductName)
	assert.Equal(t, 6, av.BasketQty)
	assert.Equal(t, 5, av.StockQty)
	assert.Equal(t, 2, av.Remaining)

	av, err = svc.BasketToStockRatio(ctx, "anon-1", p, 2)
	require.NoError(t, err)
	assert.True(t, av.IsAvailable)

	_, err = svc.BasketToStockRatio(ctx, "anon-1", p+999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransferBasket_RenamesWhenUserHasNone(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 10)

	anon, err := svc.GetOrCreateBasket(ctx, "anon-1")
	require.NoError(t, err)
	_, err = svc.AddItemToBasket(ctx, "anon-1", p, 2)
	require.NoError(t, err)

	require.NoError(t, svc.TransferBasket(ctx, "anon-1", "user-1"))

	_, err = svc.GetBasket(ctx, "anon-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	b, err := svc.GetBasket(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, anon.ID, b.ID)
	assert.Equal(t, 2, b.TotalQuantity())
}

func TestTransferBasket_MergesIntoExistingBasket(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p1 := seedProduct(t, store, "Sauvage", 10)
	p2 := seedProduct(t, store, "Chance", 10)

	_, err := svc.AddItemToBasket(ctx, "anon-1", p1, 2)
	require.NoError(t, err)
	_, err = svc.AddItemToBasket(ctx, "anon-1", p2, 1)
	require.NoError(t, err)
	_, err = svc.AddItemToBasket(ctx, "user-1", p1, 4)
	require.NoError(t, err)

	require.NoError(t, svc.TransferBasket(ctx, "anon-1", "user-1"))

	_, err = svc.GetBasket(ctx, "anon-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, store.BasketCount())

	b, err := svc.GetBasket(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, b.TotalQuantity())
	assert.Equal(t, 6, b.QuantityOf(p1))
	assert.Equal(t, 1, b.QuantityOf(p2))
	assert.Len(t, b.Items, 2)
}

func TestTransferBasket_NoAnonymousBasketIsNoop(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 10)
	_, err := svc.AddItemToBasket(ctx, "user-1", p, 1)
	require.NoError(t, err)

	require.NoError(t, svc.TransferBasket(ctx, "anon-1", "user-1"))
	assert.Equal(t, 1, store.BasketCount())

	assert.ErrorIs(t, svc.TransferBasket(ctx, "", "user-1"), ErrBuyerRequired)
	assert.ErrorIs(t, svc.TransferBasket(ctx, "anon-1", ""), ErrBuyerRequired)
}

func TestDeleteBasket_RemovesItems(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p1 := seedProduct(t, store, "Sauvage", 10)
	p2 := seedProduct(t, store, "Chance", 10)

	_, err := svc.AddItemToBasket(ctx, "anon-1", p1, 1)
	require.NoError(t, err)
	_, err = svc.AddItemToBasket(ctx, "anon-1", p2, 1)
	require.NoError(t, err)
	id, err := svc.GetBasketID(ctx, "anon-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBasket(ctx, id))
	assert.Equal(t, 0, store.BasketCount())
	assert.Equal(t, 0, store.ItemCount())

	assert.ErrorIs(t, svc.DeleteBasket(ctx, id), domain.ErrNotFound)
}

func TestItemOperations(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 10)

	item, err := svc.AddItemToBasket(ctx, "anon-1", p, 1)
	require.NoError(t, err)

	productID, err := svc.GetProductID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, p, productID)

	updated, err := svc.UpdateItemQuantity(ctx, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = svc.UpdateItemQuantity(ctx, item.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = svc.UpdateItemQuantity(ctx, item.ID+999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err := svc.DeleteItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, deleted.ID)

	_, err = svc.DeleteItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetProductID(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransferBasket_IgnoresRegisteredUserID(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 10)

	var otherID string
	store.Seed(func(repos uow.Repositories) {
		u, err := repos.Users().Create(context.Background(), domain.User{Email: "other@example.com", UserName: "other@example.com"})
		require.NoError(t, err)
		otherID = u.ID
	})
	_, err := svc.AddItemToBasket(ctx, otherID, p, 3)
	require.NoError(t, err)

	require.NoError(t, svc.TransferBasket(ctx, otherID, "user-1"))

	b, err := svc.GetBasket(ctx, otherID)
	require.NoError(t, err)
	assert.Equal(t, 3, b.TotalQuantity())
	_, err = svc.GetBasket(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateItemQuantity_ChecksCurrentStock(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Sauvage", 3)

	item, err := svc.AddItemToBasket(ctx, "anon-1", p, 1)
	require.NoError(t, err)

	store.Seed(func(repos uow.Repositories) {
		require.NoError(t, repos.Products().DecrementStock(context.Background(), p, 2))
	})

	_, err = svc.UpdateItemQuantity(ctx, item.ID, 2)
	var limit *StockLimitError
	require.ErrorAs(t, err, &limit)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "Sauvage", limit.ProductName)
	assert.Equal(t, 1, limit.Stock)

	b, err := svc.GetBasket(ctx, "anon-1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.QuantityOf(p))
}
