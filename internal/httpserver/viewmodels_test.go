package httpserver

import (
	"testing"
	"time"

	"perfumeshop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagedInfo(t *testing.T) {
	tests := []struct {
		name                 string
		page, perPage, total int
		wantPages            int
		wantPrev, wantNext   bool
	}{
		{name: "empty", page: 1, perPage: 10, total: 0, wantPages: 0},
		{name: "single page", page: 1, perPage: 10, total: 7, wantPages: 1},
		{name: "first of three", page: 1, perPage: 10, total: 21, wantPages: 3, wantNext: true},
		{name: "middle", page: 2, perPage: 10, total: 21, wantPages: 3, wantPrev: true, wantNext: true},
		{name: "last exact", page: 2, perPage: 10, total: 20, wantPages: 2, wantPrev: true},
		{name: "invalid page clamps", page: 0, perPage: 10, total: 5, wantPages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPagedInfo(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.Equal(t, tt.total, got.TotalItems)
			assert.Equal(t, tt.wantPrev, got.HasPreviousPage)
			assert.Equal(t, tt.wantNext, got.HasNextPage)
		})
	}
}

func TestAvailabilityMessage(t *testing.T) {
	ok := AvailabilityViewModel{IsAvailable: true, ProductName: "Sauvage", BasketQty: 3, StockQty: 5, Remaining: 4}
	assert.Equal(t, `Product "Sauvage" added to cart in quantity 2.`, ok.Message(2))

	short := AvailabilityViewModel{ProductName: "Sauvage", BasketQty: 7, StockQty: 5, Remaining: 0}
	assert.Equal(t, `Product "Sauvage" already added to cart in quantity 5. You can add no more than 0.`, short.Message(2))
}

func TestCatalogProductViewModel_RoundTrip(t *testing.T) {
	p := domain.Product{
		ID: 4, Name: "Sauvage", Description: "Fresh", Price: decimal.RequireFromString("89.9"),
		Stock: 0, Volume: 100, BrandID: 1, CategoryID: 2,
		DateDelivery: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	vm := newCatalogProductViewModel(p)
	assert.Equal(t, "89.90", vm.Price)
	assert.Equal(t, "2024-03-01", vm.DateDelivery)
	assert.False(t, vm.Stocked)

	back, err := vm.toProduct()
	require.NoError(t, err)
	assert.True(t, back.Price.Equal(p.Price))
	assert.True(t, back.DateDelivery.Equal(p.DateDelivery))
	assert.Equal(t, p.BrandID, back.BrandID)
}

func TestBasketViewModelTotals(t *testing.T) {
	vm := BasketViewModel{Items: []BasketItemViewModel{
		{UnitPrice: decimal.RequireFromString("10.50"), Quantity: 2},
		{UnitPrice: decimal.RequireFromString("3.00"), Quantity: 1},
	}}
	assert.Equal(t, "24.00", vm.Total().StringFixed(2))
	assert.Equal(t, 3, vm.TotalQuantity())
}

func TestLocalRedirectTarget(t *testing.T) {
	tests := map[string]string{
		"":                   "/",
		"/orders":            "/orders",
		"/catalog?page=2":    "/catalog?page=2",
		"https://evil.test/": "/",
		"//evil.test/":       "/",
		"/\\evil.test":       "/",
		"orders":             "/",
	}
	for raw, want := range tests {
		assert.Equal(t, want, localRedirectTarget(raw, "/"), raw)
	}
}
