package lookup

import (
	"context"

	"perfumeshop/internal/domain"
)

type Repository interface {
	List(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error)
	// Upsert returns the lookup with the given name, creating it if needed.
	Upsert(ctx context.Context, kind domain.LookupKind, name string) (*domain.Lookup, error)
}
