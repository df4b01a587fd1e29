package users

import (
	"context"

	"github.com/dmitrijs2005/refkeeper/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound
// when no row matches.
type Repository interface {
	// Create inserts user and fills in ID and CreatedAt. Email or username
	// clashes are reported as common.ErrorDuplicateIdentity. A referral code
	// clash inserts nothing, leaves the transaction usable and returns
	// common.ErrorReferralCodeTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	GetByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
}
