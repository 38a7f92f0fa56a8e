// Package uow bundles repository writes into a single database transaction.
package uow

import (
	"context"

	"perfumeshop/internal/db"
	"perfumeshop/internal/repository/basket"
	"perfumeshop/internal/repository/lookup"
	"perfumeshop/internal/repository/order"
	"perfumeshop/internal/repository/product"
	"perfumeshop/internal/repository/token"
	"perfumeshop/internal/repository/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Repositories exposes every repository bound to the same transaction.
type Repositories interface {
	Baskets() basket.Repository
	Products() product.Repository
	Lookups() lookup.Repository
	Orders() order.Repository
	Users() user.Repository
	Tokens() token.Repository
}

// UnitOfWork runs fn inside one transaction. A nil return commits, any error
// rolls back and is returned unchanged.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type postgresUoW struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) UnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresUoW{pool: pool, logger: logger}
}

func (u *postgresUoW) Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return db.WithTx(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, newTxRepos(tx, u.logger))
	})
}

type txRepos struct {
	baskets  basket.Repository
	products product.Repository
	lookups  lookup.Repository
	orders   order.Repository
	users    user.Repository
	tokens   token.Repository
}

func newTxRepos(conn db.DBTX, logger *zap.Logger) *txRepos {
	return &txRepos{
		baskets:  basket.NewPostgres(conn, logger),
		products: product.NewPostgres(conn, logger),
		lookups:  lookup.NewPostgres(conn),
		orders:   order.NewPostgres(conn, logger),
		users:    user.NewPostgres(conn, logger),
		tokens:   token.NewPostgres(conn),
	}
}

func (r *txRepos) Baskets() basket.Repository { return r.baskets }
func (r *txRepos) Products() product.Repository { return r.products }
func (r *txRepos) Lookups() lookup.Repository { return r.lookups }
func (r *txRepos) Orders() order.Repository { return r.orders }
func (r *txRepos) Users() user.Repository { return r.users }
func (r *txRepos) Tokens() token.Repository { return r.tokens }
