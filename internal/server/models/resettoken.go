package models

import "time"

// PasswordResetToken is a stored reset request. Only the SHA-256 of the
// opaque token is kept.
type PasswordResetToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
