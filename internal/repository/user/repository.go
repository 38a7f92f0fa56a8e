package user

import (
	"context"
	"time"

	"perfumeshop/internal/domain"
)

// Repository persists shop accounts.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// RecordFailure increments the failed sign-in counter, setting lockoutEnd
	// when it is non-nil, and returns the updated user.
	RecordFailure(ctx context.Context, id string, lockoutEnd *time.Time) (*domain.User, error)
	ResetFailures(ctx context.Context, id string) error
}
