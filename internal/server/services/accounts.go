package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/cryptox"
	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/logging"
	"github.com/dmitrijs2005/refkeeper/internal/server/auth"
	"github.com/dmitrijs2005/refkeeper/internal/server/config"
	"github.com/dmitrijs2005/refkeeper/internal/server/models"
	"github.com/dmitrijs2005/refkeeper/internal/server/notify"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/repomanager"
)

// resetTokenBytes is the entropy of a password reset token before hex
// encoding.
const resetTokenBytes = 32

// RegisterRequest carries the registration form.
type RegisterRequest struct {
	Email        string
	Username     string
	Password     string
	ReferralCode string
}

// AccountService implements registration, login and password reset on top
// of the credential store and the referral ledger.
type AccountService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	credentials        *CredentialStore
	ledger             *ReferralLedger
	tokens             *auth.TokenIssuer
	notifier           notify.Notifier
	resetTokenValidity time.Duration
	logger             logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, credentials *CredentialStore,
	ledger *ReferralLedger, tokens *auth.TokenIssuer, n notify.Notifier, l logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                 db,
		repomanager:        m,
		credentials:        credentials,
		ledger:             ledger,
		tokens:             tokens,
		notifier:           n,
		resetTokenValidity: cfg.ResetTokenValidityDuration,
		logger:             l.With("module", "account_service"),
	}
}

// Register creates the user and, when a referral code was supplied, records
// and resolves the referral in the same transaction. Nothing is persisted if
// any step fails.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: missing required fields", common.ErrorValidation)
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.credentials.CreateUser(ctx, tx, email, username, req.Password, req.ReferralCode)
		if err != nil {
			return err
		}

		if u.ReferredBy != nil {
			if _, err := s.ledger.RecordPending(ctx, tx, *u.ReferredBy); err != nil {
				return err
			}
			if err := s.ledger.Resolve(ctx, tx, *u.ReferredBy, u.ID); err != nil {
				return err
			}
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "referred", user.ReferredBy != nil)
	return user, nil
}

// Login checks the credentials and returns a signed session token. Unknown
// identifiers and wrong passwords both yield common.ErrorInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", fmt.Errorf("%w: missing credentials", common.ErrorValidation)
	}

	user, err := s.credentials.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		user = nil
	}

	if !s.credentials.VerifyPassword(user, password) {
		return "", common.ErrorInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.UserName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// ForgotPassword issues a single-use reset token for the account registered
// under email, replacing any earlier one, and hands it to the notifier. Only
// a hash of the token is stored.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	user, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnknownUser
		}
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	var stored *models.PasswordResetToken
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.ResetTokens(tx)
		if err := repo.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		t, err := repo.Create(ctx, user.ID, cryptox.HashToken(token), s.resetTokenValidity)
		if err != nil {
			return err
		}
		stored = t
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	msg := notify.PasswordResetMessage{
		UserID:     user.ID,
		Email:      user.Email,
		Username:   user.UserName,
		ResetToken: token,
		ExpiresAt:  stored.ExpiresAt,
	}
	if err := s.notifier.NotifyPasswordReset(ctx, msg); err != nil {
		s.logger.Error(ctx, "failed to deliver password reset", "user_id", user.ID, "error", err)
	}

	return token, nil
}
