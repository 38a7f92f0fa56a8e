package basket

import (
	"context"
	"errors"

	"perfumeshop/internal/db"
	"perfumeshop/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type postgresRepo struct {
	db     db.DBTX
	logger *zap.Logger
}

// NewPostgres returns a Repository running its statements on conn, which may
// be a pool or a transaction.
func NewPostgres(conn db.DBTX, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{db: conn, logger: logger}
}

func (r *postgresRepo) GetByBuyer(ctx context.Context, buyerID string) (*domain.Basket, error) {
	return r.fetchBasket(ctx, `
SELECT id, buyer_id, created_at
FROM baskets
WHERE buyer_id = $1
`, buyerID)
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Basket, error) {
	return r.fetchBasket(ctx, `
SELECT id, buyer_id, created_at
FROM baskets
WHERE id = $1
`, id)
}

func (r *postgresRepo) Create(ctx context.Context, buyerID string) (*domain.Basket, error) {
	const q = `
INSERT INTO baskets (buyer_id)
VALUES ($1)
RETURNING id, buyer_id, created_at
`
	var b domain.Basket
	if err := r.db.QueryRow(ctx, q, buyerID).Scan(&b.ID, &b.BuyerID, &b.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Debug("basket repo: created", zap.Int64("basket_id", b.ID), zap.String("buyer_id", buyerID))
	return &b, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM baskets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ReassignBuyer(ctx context.Context, id int64, buyerID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE baskets SET buyer_id = $1 WHERE id = $2`, buyerID, id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AddItem(ctx context.Context, basketID, productID int64, qty int) (*domain.BasketItem, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	const q = `
INSERT INTO basket_items (basket_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (basket_id, product_id) DO UPDATE
SET quantity = basket_items.quantity + EXCLUDED.quantity
RETURNING id, basket_id, product_id, quantity, created_at
`
	return scanItem(r.db.QueryRow(ctx, q, basketID, productID, qty))
}

func (r *postgresRepo) GetItem(ctx context.Context, itemID int64) (*domain.BasketItem, error) {
	const q = `
SELECT id, basket_id, product_id, quantity, created_at
FROM basket_items
WHERE id = $1
`
	return scanItem(r.db.QueryRow(ctx, q, itemID))
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, itemID int64, qty int) (*domain.BasketItem, error) {
	if qty < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	const q = `
UPDATE basket_items
SET quantity = $1
WHERE id = $2
RETURNING id, basket_id, product_id, quantity, created_at
`
	return scanItem(r.db.QueryRow(ctx, q, qty, itemID))
}

func (r *postgresRepo) DeleteItem(ctx context.Context, itemID int64) (*domain.BasketItem, error) {
	const q = `
DELETE FROM basket_items
WHERE id = $1
RETURNING id, basket_id, product_id, quantity, created_at
`
	return scanItem(r.db.QueryRow(ctx, q, itemID))
}

func (r *postgresRepo) fetchBasket(ctx context.Context, basketQuery string, args ...any) (*domain.Basket, error) {
	var b domain.Basket
	err := r.db.QueryRow(ctx, basketQuery, args...).Scan(&b.ID, &b.BuyerID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id, basket_id, product_id, quantity, created_at
FROM basket_items
WHERE basket_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, linesQuery, b.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.BasketItem
		if err := rows.Scan(&it.ID, &it.BasketID, &it.ProductID, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		b.Items = append(b.Items, it)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("basket repo: read items", zap.Int64("basket_id", b.ID), zap.Error(err))
		return nil, err
	}
	return &b, nil
}

func scanItem(row pgx.Row) (*domain.BasketItem, error) {
	var it domain.BasketItem
	if err := row.Scan(&it.ID, &it.BasketID, &it.ProductID, &it.Quantity, &it.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}
