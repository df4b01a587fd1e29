// Package resettokens declares the repository contract for password reset
// tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/refkeeper/internal/server/models"
)

// Repository stores hashed password reset tokens.
type Repository interface {
	// Create stores tokenHash for userID, expiring at now+validity.
	Create(ctx context.Context, userID int64, tokenHash string, validity time.Duration) (*models.PasswordResetToken, error)

	// DeleteByUser removes every outstanding token of userID. Deleting when
	// none exist is not an error.
	DeleteByUser(ctx context.Context, userID int64) error
}
