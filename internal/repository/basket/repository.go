package basket

import (
	"context"

	"perfumeshop/internal/domain"
)

// Repository persists baskets keyed by buyer id and their items.
type Repository interface {
	GetByBuyer(ctx context.Context, buyerID string) (*domain.Basket, error)
	GetByID(ctx context.Context, id int64) (*domain.Basket, error)
	Create(ctx context.Context, buyerID string) (*domain.Basket, error)
	Delete(ctx context.Context, id int64) error
	ReassignBuyer(ctx context.Context, id int64, buyerID string) error

	// AddItem inserts a line or adds qty to the existing line for the product.
	AddItem(ctx context.Context, basketID, productID int64, qty int) (*domain.BasketItem, error)
	GetItem(ctx context.Context, itemID int64) (*domain.BasketItem, error)
	SetItemQuantity(ctx context.Context, itemID int64, qty int) (*domain.BasketItem, error)
	DeleteItem(ctx context.Context, itemID int64) (*domain.BasketItem, error)
}
