package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const selectProduct = `
SELECT p.id, p.name, p.description, p.picture_uri, p.price::text, p.stock, p.volume, p.date_delivery,
       p.brand_id, b.name,
       COALESCE(p.gender_id, 0), COALESCE(g.name, ''),
       COALESCE(p.type_id, 0), COALESCE(t.name, ''),
       COALESCE(p.release_form_id, 0), COALESCE(rf.name, ''),
       p.category_id, c.name, p.created_at
FROM products p
JOIN brands b ON b.id = p.brand_id
JOIN categories c ON c.id = p.category_id
LEFT JOIN genders g ON g.id = p.gender_id
LEFT JOIN product_types t ON t.id = p.type_id
LEFT JOIN release_forms rf ON rf.id = p.release_form_id
`

func (r *postgresRepo) List(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]domain.Product, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM products p`+where, args...).Scan(&total); err != nil {
		r.logger.Error("product repo: count", zap.Error(err))
		return nil, 0, err
	}

	q := selectProduct + where + " ORDER BY p.name ASC, p.id ASC"
	if page.PerPage > 0 {
		args = append(args, page.PerPage, page.Offset())
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)), zap.Int("total", total))
	return result, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, selectProduct+" WHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("product repo: not found", zap.Int64("id", id))
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (name, description, picture_uri, price, stock, volume, date_delivery,
                      brand_id, gender_id, type_id, release_form_id, category_id)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, NULLIF($9, 0), NULLIF($10, 0), NULLIF($11, 0), $12)
RETURNING id
`
	var id int64
	err := r.db.QueryRow(ctx, q, productArgs(p)...).Scan(&id)
	if err != nil {
		r.logger.Error("product repo: create", zap.String("name", p.Name), zap.Error(err))
		return nil, mapWriteErr(err)
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET name = $1, description = $2, picture_uri = $3, price = $4::numeric, stock = $5, volume = $6,
    date_delivery = $7, brand_id = $8, gender_id = NULLIF($9, 0), type_id = NULLIF($10, 0),
    release_form_id = NULLIF($11, 0), category_id = $12
WHERE id = $13
`
	cmd, err := r.db.Exec(ctx, q, append(productArgs(p), p.ID)...)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, p.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (name, description, picture_uri, price, stock, volume, date_delivery,
                      brand_id, gender_id, type_id, release_form_id, category_id)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, NULLIF($9, 0), NULLIF($10, 0), NULLIF($11, 0), $12)
ON CONFLICT (brand_id, name) DO UPDATE SET
    description = EXCLUDED.description,
    picture_uri = EXCLUDED.picture_uri,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    volume = EXCLUDED.volume,
    date_delivery = EXCLUDED.date_delivery,
    gender_id = EXCLUDED.gender_id,
    type_id = EXCLUDED.type_id,
    release_form_id = EXCLUDED.release_form_id,
    category_id = EXCLUDED.category_id
RETURNING id
`
	var id int64
	if err := r.db.QueryRow(ctx, q, productArgs(p)...).Scan(&id); err != nil {
		r.logger.Error("product repo: upsert", zap.String("name", p.Name), zap.Int64("brand_id", p.BrandID), zap.Error(err))
		return nil, mapWriteErr(err)
	}
	r.logger.Debug("product repo: upserted", zap.String("name", p.Name), zap.Int64("id", id))
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) DecrementStock(ctx context.Context, id int64, qty int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`, qty, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

func buildWhere(f domain.ProductFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.BrandID > 0 {
		add("p.brand_id = $%d", f.BrandID)
	}
	if f.CategoryID > 0 {
		add("p.category_id = $%d", f.CategoryID)
	}
	if f.GenderID > 0 {
		add("p.gender_id = $%d", f.GenderID)
	}
	if f.TypeID > 0 {
		add("p.type_id = $%d", f.TypeID)
	}
	if f.ReleaseFormID > 0 {
		add("p.release_form_id = $%d", f.ReleaseFormID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add("p.name ILIKE '%%' || $%d || '%%'", q)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func productArgs(p domain.Product) []any {
	return []any{
		p.Name, p.Description, p.PictureURI, p.Price.StringFixed(2), p.Stock, p.Volume, p.DateDelivery,
		p.BrandID, p.GenderID, p.TypeID, p.ReleaseFormID, p.CategoryID,
	}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.PictureURI, &price, &p.Stock, &p.Volume, &p.DateDelivery,
		&p.BrandID, &p.Brand,
		&p.GenderID, &p.Gender,
		&p.TypeID, &p.Type,
		&p.ReleaseFormID, &p.ReleaseForm,
		&p.CategoryID, &p.Category, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("product %d: parse price %q: %w", p.ID, price, err)
	}
	return &p, nil
}

func mapWriteErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if db.IsUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}
