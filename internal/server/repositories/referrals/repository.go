// Package referrals declares and implements storage for referral records.
package referrals

import (
	"context"

	"github.com/dmitrijs2005/refkeeper/internal/server/models"
)

// Repository stores referral records.
type Repository interface {
	// Create inserts a referral with no referred user yet.
	Create(ctx context.Context, referrerID int64, status models.ReferralStatus) (*models.Referral, error)

	// ResolveLatestPending links the newest unresolved referral of referrerID
	// to referredUserID and moves it to status. It returns
	// common.ErrorNotFound when the referrer has no unresolved referral.
	ResolveLatestPending(ctx context.Context, referrerID, referredUserID int64, status models.ReferralStatus) (*models.Referral, error)

	// ListByReferrer returns the referrer's referrals in insertion order.
	ListByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error)

	CountByStatus(ctx context.Context, referrerID int64, status models.ReferralStatus) (int, error)
}
