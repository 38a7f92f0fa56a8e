package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"perfumeshop/internal/db"
	"perfumeshop/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type postgresRepo struct {
	db     db.DBTX
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(conn db.DBTX, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{db: conn, logger: logger}
}

const userColumns = `id::text, email, user_name, password_hash, is_admin, failed_attempts, lockout_end, created_at`

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
INSERT INTO users (email, user_name, password_hash, is_admin)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns
	return r.scanUser(r.db.QueryRow(ctx, q, strings.ToLower(u.Email), u.UserName, u.PasswordHash, u.IsAdmin))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.db.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id::text = $1 LIMIT 1`
	return r.scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *postgresRepo) RecordFailure(ctx context.Context, id string, lockoutEnd *time.Time) (*domain.User, error) {
	q := `
UPDATE users
SET failed_attempts = CASE WHEN $2::timestamptz IS NULL THEN failed_attempts + 1 ELSE 0 END,
    lockout_end = COALESCE($2::timestamptz, lockout_end)
WHERE id::text = $1
RETURNING ` + userColumns
	return r.scanUser(r.db.QueryRow(ctx, q, id, lockoutEnd))
}

func (r *postgresRepo) ResetFailures(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET failed_attempts = 0, lockout_end = NULL WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.UserName, &u.PasswordHash, &u.IsAdmin, &u.FailedAttempts, &u.LockoutEnd, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("user repo: scan", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
