package product

import (
	"context"

	"perfumeshop/internal/domain"
)

type Repository interface {
	List(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	// Upsert inserts or updates a product keyed by (brand, name).
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	// DecrementStock removes qty units, failing with ErrInsufficientStock
	// when fewer remain.
	DecrementStock(ctx context.Context, id int64, qty int) error
}
