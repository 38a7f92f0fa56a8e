// Package pgtest provides a migrated PostgreSQL pool for integration tests.
// It uses TEST_DB_DSN when set and otherwise starts a throwaway container.
// Tests are skipped when neither is available.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"perfumeshop/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Pool returns a pool on a migrated, truncated database.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = startContainer(ctx, t)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(ctx, t, pool)
	return pool
}

// Reset truncates every application table.
func Reset(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	const q = `TRUNCATE order_items, orders, basket_items, baskets, tokens, users, products,
brands, categories, genders, product_types, release_forms RESTART IDENTITY CASCADE`
	if _, err := pool.Exec(ctx, q); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

// SeedProduct inserts a product with its brand and category and returns its id.
func SeedProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name, price string, stock int) int64 {
	t.Helper()
	var brandID, categoryID, productID int64
	if err := pool.QueryRow(ctx, `INSERT INTO brands (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, "Brand").Scan(&brandID); err != nil {
		t.Fatalf("insert brand: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, "Eau de Parfum").Scan(&categoryID); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	err := pool.QueryRow(ctx, `
INSERT INTO products (name, price, stock, volume, brand_id, category_id)
VALUES ($1, $2::numeric, $3, 50, $4, $5)
RETURNING id`, name, price, stock, brandID, categoryID).Scan(&productID)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return productID
}

func startContainer(ctx context.Context, t *testing.T) string {
	t.Helper()
	var ctr *postgres.PostgresContainer
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("docker unavailable: %v", r)
			}
		}()
		ctr, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("perfume_test"),
			postgres.WithUsername("perfume"),
			postgres.WithPassword("perfume"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
	}()
	if err != nil {
		t.Skipf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("container dsn: %v", err)
	}
	return dsn
}
