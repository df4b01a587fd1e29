// Package users provides the PostgreSQL-backed user repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/server/models"
)

const selectUser = `SELECT id, email, username, password_hash, referral_code, referred_by, created_at FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, username, password_hash, referral_code, referred_by)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (referral_code) DO NOTHING
		 RETURNING id, created_at
		 `

	var referredBy sql.NullInt64
	if user.ReferredBy != nil {
		referredBy = sql.NullInt64{Int64: *user.ReferredBy, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.UserName, user.PasswordHash, user.ReferralCode, referredBy).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorReferralCodeTaken
		}
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, common.ErrorDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// GetByEmailOrUsername prefers an email match when identifier is both some
// user's email and another user's username.
func (r *PostgresRepository) GetByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error) {
	query := selectUser + `
		 WHERE email = $1 OR username = $1
		 ORDER BY (email = $1) DESC, id
		 LIMIT 1
		 `
	return r.getOne(ctx, query, identifier)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := selectUser + `
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := selectUser + `
		 WHERE referral_code = $1
		 `
	return r.getOne(ctx, query, code)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var referredBy sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.UserName, &user.PasswordHash,
		&user.ReferralCode, &referredBy, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if referredBy.Valid {
		id := referredBy.Int64
		user.ReferredBy = &id
	}
	return user, nil
}
