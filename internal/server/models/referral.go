package models

import "time"

// ReferralStatus is the lifecycle state of a Referral.
type ReferralStatus string

const (
	// ReferralPending marks a referral whose referred user is not yet linked.
	ReferralPending ReferralStatus = "pending"
	// ReferralSuccessful marks a referral resolved to a registered user.
	ReferralSuccessful ReferralStatus = "successful"
)

// IsValid reports whether s is a known status.
func (s ReferralStatus) IsValid() bool {
	switch s {
	case ReferralPending, ReferralSuccessful:
		return true
	}
	return false
}

// Referral records that ReferrerID's code was used to register ReferredUserID.
type Referral struct {
	ID             int64          `json:"id"`
	ReferrerID     int64          `json:"referrerId"`
	ReferredUserID *int64         `json:"referredUserId"`
	DateReferred   time.Time      `json:"dateReferred"`
	Status         ReferralStatus `json:"status"`
}

// ReferralStats summarises a referrer's referrals.
type ReferralStats struct {
	ReferralCount int `json:"referralCount"`
}
