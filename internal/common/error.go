// Package common defines shared constants and sentinel errors used across
// the refkeeper server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Request validation errors.
	ErrorValidation = errors.New("validation error")

	// Registration errors.
	ErrorDuplicateIdentity     = errors.New("email or username already in use")
	ErrorInvalidReferralCode   = errors.New("invalid referral code")
	ErrorReferralCodeTaken     = errors.New("referral code already taken")
	ErrReferralUnresolved      = errors.New("no pending referral to resolve")
	ErrorReferralCodeExhausted = errors.New("could not allocate a unique referral code")
	ErrorInvalidReferralStatus = errors.New("invalid referral status")

	// Login / reset errors.
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorUnknownUser        = errors.New("user with this email does not exist")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
