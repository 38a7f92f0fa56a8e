package order

import (
	"context"
	"testing"
	"time"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/pgtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_CreateGetList(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	repo := NewPostgres(pool, nil)

	o := domain.Order{
		BuyerID: "buyer-1",
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Sauvage", UnitPrice: decimal.RequireFromString("89.90"), Quantity: 2},
			{ProductID: 2, ProductName: "Chance", UnitPrice: decimal.RequireFromString("120.00"), Quantity: 1},
		},
	}
	o.Payment = domain.NewPaymentInfo(domain.PaymentPending, o.Total(), "sess-1", "pi-1")

	created, err := repo.Create(ctx, o)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.True(t, got.Payment.PayablePrice.Equal(decimal.RequireFromString("299.80")))
	assert.Equal(t, domain.PaymentPending, got.Payment.Status)
	assert.Equal(t, "sess-1", got.Payment.SessionID())
	assert.Equal(t, "pi-1", got.Payment.PaymentIntentID())
	assert.Nil(t, got.Payment.PaymentDate)
	assert.True(t, got.Total().Equal(got.Payment.PayablePrice))

	list, err := repo.ListByBuyer(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 2)

	none, err := repo.ListByBuyer(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.GetByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_UpdatePayment(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(t)
	repo := NewPostgres(pool, nil)

	o := domain.Order{BuyerID: "buyer-2", Items: []domain.OrderItem{{ProductID: 1, ProductName: "A", UnitPrice: decimal.NewFromInt(10), Quantity: 1}}}
	o.Payment = domain.NewPaymentInfo(domain.PaymentPending, o.Total(), "s", "i")
	created, err := repo.Create(ctx, o)
	require.NoError(t, err)

	p := created.Payment
	require.NoError(t, p.MarkPaid(time.Now()))
	require.NoError(t, repo.UpdatePayment(ctx, created.ID, p))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, got.Payment.Status)
	require.NotNil(t, got.Payment.PaymentDate)

	assert.ErrorIs(t, repo.UpdatePayment(ctx, created.ID+1000, p), domain.ErrNotFound)
}
