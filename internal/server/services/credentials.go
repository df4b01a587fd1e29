package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/server/auth"
	"github.com/dmitrijs2005/refkeeper/internal/server/models"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/users"
)

const (
	referralCodeLength   = 8
	referralCodeAttempts = 5
)

// fallbackDummyHash is a cost 10 bcrypt hash of no known password, used when
// the throwaway hash cannot be generated.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var hashPassword = auth.HashPassword

// CredentialStore owns user records: creation with unique identity and
// referral code, lookup, and password verification.
type CredentialStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bcryptCost  int
	newCode     func() (string, error)

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore constructs a CredentialStore hashing with bcryptCost.
func NewCredentialStore(db *sql.DB, m repomanager.RepositoryManager, bcryptCost int) *CredentialStore {
	return &CredentialStore{
		db:          db,
		repomanager: m,
		bcryptCost:  bcryptCost,
		newCode: func() (string, error) {
			return common.MakeRandCode(referralCodeLength, common.ReferralCodeAlphabet)
		},
	}
}

// CreateUser inserts a new user through tx. It fails with
// common.ErrorDuplicateIdentity when email or username is taken and with
// common.ErrorInvalidReferralCode when a non-empty referralCode matches no
// user. On success ReferredBy holds the referrer's id, if any.
func (s *CredentialStore) CreateUser(ctx context.Context, tx dbx.DBTX, email, username, password, referralCode string) (*models.User, error) {
	repo := s.repomanager.Users(tx)

	exists, err := repo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("error checking identity: %w", err)
	}
	if exists {
		return nil, common.ErrorDuplicateIdentity
	}

	var referredBy *int64
	if referralCode != "" {
		referrer, err := repo.GetByReferralCode(ctx, strings.TrimSpace(referralCode))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrorInvalidReferralCode
			}
			return nil, fmt.Errorf("error resolving referral code: %w", err)
		}
		referredBy = &referrer.ID
	}

	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	// A code can still be claimed by a concurrent registration between the
	// lookup and the insert; Create reports that without aborting tx.
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := s.allocateReferralCode(ctx, repo)
		if err != nil {
			return nil, err
		}

		user, err := repo.Create(ctx, &models.User{
			Email:        email,
			UserName:     username,
			PasswordHash: hash,
			ReferralCode: code,
			ReferredBy:   referredBy,
		})
		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, common.ErrorReferralCodeTaken):
			continue
		case errors.Is(err, common.ErrorDuplicateIdentity):
			return nil, err
		default:
			return nil, fmt.Errorf("error creating user: %w", err)
		}
	}
	return nil, common.ErrorReferralCodeExhausted
}

// allocateReferralCode draws codes until one is unused. Collisions are
// detected with a read so the surrounding transaction stays usable.
func (s *CredentialStore) allocateReferralCode(ctx context.Context, repo users.Repository) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("error generating referral code: %w", err)
		}
		_, err = repo.GetByReferralCode(ctx, code)
		if errors.Is(err, common.ErrorNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("error checking referral code: %w", err)
		}
	}
	return "", common.ErrorReferralCodeExhausted
}

// FindByEmailOrUsername returns common.ErrorNotFound when nothing matches.
func (s *CredentialStore) FindByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmailOrUsername(ctx, identifier)
}

// FindByEmail returns common.ErrorNotFound when nothing matches.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, email)
}

// VerifyPassword checks candidate against the user's stored hash. A nil user
// is checked against a throwaway hash and always fails, so a missing account
// costs as much as a wrong password.
func (s *CredentialStore) VerifyPassword(user *models.User, candidate string) bool {
	if user == nil {
		auth.VerifyPassword(s.throwawayHash(), candidate)
		return false
	}
	return auth.VerifyPassword(user.PasswordHash, candidate)
}

func (s *CredentialStore) throwawayHash() string {
	s.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			secret = "refkeeper"
		}
		hash, err := hashPassword(secret, s.bcryptCost)
		if err != nil {
			hash = fallbackDummyHash
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
