package order

import (
	"context"

	"perfumeshop/internal/domain"
)

// Repository persists orders with their frozen lines and payment state.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	UpdatePayment(ctx context.Context, id int64, p domain.PaymentInfo) error
}
