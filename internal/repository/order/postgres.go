package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perfumeshop/internal/db"
	"perfumeshop/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type postgresRepo struct {
	db     db.DBTX
	logger *zap.Logger
}

func NewPostgres(conn db.DBTX, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{db: conn, logger: logger}
}

const selectOrder = `
SELECT id, buyer_id, payment_status_id, payable_price::text, payment_date,
       COALESCE(session_id, ''), COALESCE(payment_intent_id, ''), created_at
FROM orders
`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (buyer_id, payment_status_id, payable_price, payment_date, session_id, payment_intent_id)
VALUES ($1, $2, $3::numeric, $4, NULLIF($5, ''), NULLIF($6, ''))
RETURNING id, created_at
`
	p := o.Payment
	out := o
	if err := r.db.QueryRow(ctx, q,
		o.BuyerID,
		int(p.Status),
		p.PayablePrice.StringFixed(2),
		p.PaymentDate,
		p.SessionID(),
		p.PaymentIntentID(),
	).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	const qi = `
INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
VALUES ($1, $2, $3, $4::numeric, $5)
`
	for _, it := range o.Items {
		if _, err := r.db.Exec(ctx, qi, out.ID, it.ProductID, it.ProductName, it.UnitPrice.StringFixed(2), it.Quantity); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}
	r.logger.Debug("order repo: created", zap.Int64("order_id", out.ID), zap.Int("items", len(o.Items)))
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, selectOrder+`WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresRepo) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, selectOrder+`WHERE buyer_id = $1 ORDER BY created_at DESC, id DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := r.items(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *postgresRepo) UpdatePayment(ctx context.Context, id int64, p domain.PaymentInfo) error {
	const q = `
UPDATE orders
SET payment_status_id = $2, payable_price = $3::numeric, payment_date = $4
WHERE id = $1
`
	cmd, err := r.db.Exec(ctx, q, id, int(p.Status), p.PayablePrice.StringFixed(2), p.PaymentDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) items(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.Query(ctx, `
SELECT product_id, product_name, unit_price::text, quantity
FROM order_items
WHERE order_id = $1
ORDER BY id ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			it    domain.OrderItem
			price string
		)
		if err := rows.Scan(&it.ProductID, &it.ProductName, &price, &it.Quantity); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		status    int
		price     string
		paidAt    *time.Time
		sessionID string
		intentID  string
	)
	if err := row.Scan(&o.ID, &o.BuyerID, &status, &price, &paidAt, &sessionID, &intentID, &o.CreatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse payable price: %w", err)
	}
	o.Payment = domain.NewPaymentInfo(domain.PaymentStatus(status), amount, sessionID, intentID)
	o.Payment.PaymentDate = paidAt
	return &o, nil
}
