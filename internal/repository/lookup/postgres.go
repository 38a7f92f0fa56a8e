package lookup

import (
	"context"
	"fmt"

	"perfumeshop/internal/db"
	"perfumeshop/internal/domain"
)

var tables = map[domain.LookupKind]string{
	domain.LookupBrand:       "brands",
	domain.LookupCategory:    "categories",
	domain.LookupGender:      "genders",
	domain.LookupType:        "product_types",
	domain.LookupReleaseForm: "release_forms",
}

type postgresRepo struct {
	db db.DBTX
}

func NewPostgres(conn db.DBTX) Repository {
	return &postgresRepo{db: conn}
}

func (r *postgresRepo) List(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, name FROM `+table+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Lookup
	for rows.Next() {
		l := domain.Lookup{Kind: kind}
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, kind domain.LookupKind, name string) (*domain.Lookup, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO ` + table + ` (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name
`
	out := domain.Lookup{Kind: kind}
	if err := r.db.QueryRow(ctx, q, name).Scan(&out.ID, &out.Name); err != nil {
		return nil, err
	}
	return &out, nil
}

func tableFor(kind domain.LookupKind) (string, error) {
	table, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("lookup repo: unknown kind %q", kind)
	}
	return table, nil
}
