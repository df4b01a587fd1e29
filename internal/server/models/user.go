// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account record. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	UserName     string    `json:"username"`
	PasswordHash string    `json:"-"`
	ReferralCode string    `json:"referralCode"`
	ReferredBy   *int64    `json:"referredBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
