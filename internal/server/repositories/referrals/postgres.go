package referrals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, referrerID int64, status models.ReferralStatus) (*models.Referral, error) {
	query := `
		INSERT INTO referrals (referrer_id, status)
		VALUES ($1, $2)
		RETURNING id, date_referred
	`
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidReferralStatus, status)
	}
	ref := &models.Referral{ReferrerID: referrerID, Status: status}
	if err := r.db.QueryRowContext(ctx, query, referrerID, string(status)).Scan(&ref.ID, &ref.DateReferred); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ref, nil
}

// ResolveLatestPending locks the target row so concurrent registrations
// against the same referrer cannot resolve the same record twice.
func (r *PostgresRepository) ResolveLatestPending(ctx context.Context, referrerID, referredUserID int64, status models.ReferralStatus) (*models.Referral, error) {
	query := `
		UPDATE referrals
		SET referred_user_id = $2, status = $3
		WHERE id = (
			SELECT id FROM referrals
			WHERE referrer_id = $1 AND referred_user_id IS NULL
			ORDER BY id DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING id, referrer_id, referred_user_id, date_referred, status
	`
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidReferralStatus, status)
	}
	row := r.db.QueryRowContext(ctx, query, referrerID, referredUserID, string(status))

	ref, err := scanReferral(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ref, nil
}

func (r *PostgresRepository) ListByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error) {
	query := `
		SELECT id, referrer_id, referred_user_id, date_referred, status
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Referral, 0)
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, referrerID int64, status models.ReferralStatus) (int, error) {
	query := `
		SELECT COUNT(*) FROM referrals
		WHERE referrer_id = $1 AND status = $2
	`
	var n int
	if !status.IsValid() {
		return 0, fmt.Errorf("%w: %q", common.ErrorInvalidReferralStatus, status)
	}
	if err := r.db.QueryRowContext(ctx, query, referrerID, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReferral(s scanner) (*models.Referral, error) {
	ref := &models.Referral{}
	var referred sql.NullInt64
	var status string

	if err := s.Scan(&ref.ID, &ref.ReferrerID, &referred, &ref.DateReferred, &status); err != nil {
		return nil, err
	}
	if referred.Valid {
		id := referred.Int64
		ref.ReferredUserID = &id
	}
	ref.Status = models.ReferralStatus(status)
	if !ref.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q on referral %d", common.ErrorInvalidReferralStatus, status, ref.ID)
	}
	return ref, nil
}
