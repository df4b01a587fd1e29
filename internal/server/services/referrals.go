package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/server/models"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/repomanager"
)

// ReferralLedger records who referred whom and answers per-referrer queries.
type ReferralLedger struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewReferralLedger(db *sql.DB, m repomanager.RepositoryManager) *ReferralLedger {
	return &ReferralLedger{db: db, repomanager: m}
}

// RecordPending inserts an unresolved referral for referrerID through tx.
func (l *ReferralLedger) RecordPending(ctx context.Context, tx dbx.DBTX, referrerID int64) (*models.Referral, error) {
	ref, err := l.repomanager.Referrals(tx).Create(ctx, referrerID, models.ReferralPending)
	if err != nil {
		return nil, fmt.Errorf("error recording referral: %w", err)
	}
	return ref, nil
}

// Resolve links the newest unresolved referral of referrerID to newUserID
// and marks it successful. It returns common.ErrReferralUnresolved when
// there is nothing to resolve.
func (l *ReferralLedger) Resolve(ctx context.Context, tx dbx.DBTX, referrerID, newUserID int64) error {
	_, err := l.repomanager.Referrals(tx).ResolveLatestPending(ctx, referrerID, newUserID, models.ReferralSuccessful)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: referrer %d, user %d", common.ErrReferralUnresolved, referrerID, newUserID)
		}
		return fmt.Errorf("error resolving referral: %w", err)
	}
	return nil
}

// ListByReferrer returns referrals in insertion order.
func (l *ReferralLedger) ListByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error) {
	refs, err := l.repomanager.Referrals(l.db).ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("error listing referrals: %w", err)
	}
	return refs, nil
}

func (l *ReferralLedger) CountSuccessful(ctx context.Context, referrerID int64) (int, error) {
	n, err := l.repomanager.Referrals(l.db).CountByStatus(ctx, referrerID, models.ReferralSuccessful)
	if err != nil {
		return 0, fmt.Errorf("error counting referrals: %w", err)
	}
	return n, nil
}

// Stats is the response body of the referral statistics endpoint.
func (l *ReferralLedger) Stats(ctx context.Context, referrerID int64) (*models.ReferralStats, error) {
	n, err := l.CountSuccessful(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	return &models.ReferralStats{ReferralCount: n}, nil
}
