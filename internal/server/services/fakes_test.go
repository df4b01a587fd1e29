package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/dbx"
	"github.com/dmitrijs2005/refkeeper/internal/logging"
	"github.com/dmitrijs2005/refkeeper/internal/server/auth"
	"github.com/dmitrijs2005/refkeeper/internal/server/config"
	"github.com/dmitrijs2005/refkeeper/internal/server/models"
	"github.com/dmitrijs2005/refkeeper/internal/server/notify"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/referrals"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/refkeeper/internal/server/repositories/users"
)

// --- in-memory storage ---

type memStore struct {
	mu        sync.Mutex
	nextID    int64
	users     []*models.User
	referrals []*models.Referral
	tokens    []*models.PasswordResetToken

	userCreates int
	lookupErr   error
	noPending   bool
	// createErrs are returned by successive user inserts before the store
	// is consulted, standing in for a concurrent writer.
	createErrs []error
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userCreates++
	if len(r.s.createErrs) > 0 {
		err := r.s.createErrs[0]
		r.s.createErrs = r.s.createErrs[1:]
		return nil, err
	}
	for _, x := range r.s.users {
		if x.Email == u.Email || x.UserName == u.UserName {
			return nil, common.ErrorDuplicateIdentity
		}
		if x.ReferralCode == u.ReferralCode {
			return nil, common.ErrorReferralCodeTaken
		}
	}
	c := *u
	c.ID = r.s.id()
	c.CreatedAt = time.Now()
	r.s.users = append(r.s.users, &c)
	out := c
	return &out, nil
}

func (r memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.Email == email || x.UserName == username {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.lookupErr != nil {
		return nil, r.s.lookupErr
	}
	for _, x := range r.s.users {
		if match(x) {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByEmailOrUsername(_ context.Context, identifier string) (*models.User, error) {
	if u, err := r.find(func(u *models.User) bool { return u.Email == identifier }); err == nil {
		return u, nil
	}
	return r.find(func(u *models.User) bool { return u.UserName == identifier })
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ReferralCode == code })
}

type memReferrals struct{ s *memStore }

func (r memReferrals) Create(_ context.Context, referrerID int64, status models.ReferralStatus) (*models.Referral, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ref := &models.Referral{ID: r.s.id(), ReferrerID: referrerID, DateReferred: time.Now(), Status: status}
	r.s.referrals = append(r.s.referrals, ref)
	c := *ref
	return &c, nil
}

func (r memReferrals) ResolveLatestPending(_ context.Context, referrerID, referredUserID int64, status models.ReferralStatus) (*models.Referral, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.noPending {
		return nil, common.ErrorNotFound
	}
	for i := len(r.s.referrals) - 1; i >= 0; i-- {
		ref := r.s.referrals[i]
		if ref.ReferrerID == referrerID && ref.ReferredUserID == nil {
			id := referredUserID
			ref.ReferredUserID = &id
			ref.Status = status
			c := *ref
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memReferrals) ListByReferrer(_ context.Context, referrerID int64) ([]*models.Referral, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Referral{}
	for _, ref := range r.s.referrals {
		if ref.ReferrerID == referrerID {
			c := *ref
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memReferrals) CountByStatus(_ context.Context, referrerID int64, status models.ReferralStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, ref := range r.s.referrals {
		if ref.ReferrerID == referrerID && ref.Status == status {
			n++
		}
	}
	return n, nil
}

type memTokens struct{ s *memStore }

func (r memTokens) Create(_ context.Context, userID int64, tokenHash string, validity time.Duration) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := &models.PasswordResetToken{
		ID:        r.s.id(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	r.s.tokens = append(r.s.tokens, t)
	return t, nil
}

func (r memTokens) DeleteByUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.tokens[:0]
	for _, t := range r.s.tokens {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	r.s.tokens = kept
	return nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *fakeRepoManager) Referrals(dbx.DBTX) referrals.Repository      { return memReferrals{m.s} }
func (m *fakeRepoManager) ResetTokens(dbx.DBTX) resettokens.Repository  { return memTokens{m.s} }

// --- collaborators ---

type fakeNotifier struct {
	sent []notify.PasswordResetMessage
	err  error
}

func (n *fakeNotifier) NotifyPasswordReset(_ context.Context, msg notify.PasswordResetMessage) error {
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *fakeNotifier) Close() error { return nil }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// --- fixture ---

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	store    *memStore
	creds    *CredentialStore
	ledger   *ReferralLedger
	issuer   *auth.TokenIssuer
	notifier *fakeNotifier
	accounts *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := &memStore{}
	rm := &fakeRepoManager{s: store}
	cfg := &config.Config{ResetTokenValidityDuration: 30 * time.Minute}

	f := &fixture{
		db:       db,
		mock:     mock,
		store:    store,
		creds:    NewCredentialStore(db, rm, bcrypt.MinCost),
		ledger:   NewReferralLedger(db, rm),
		issuer:   auth.NewTokenIssuer([]byte("k"), time.Hour),
		notifier: &fakeNotifier{},
	}
	f.accounts = NewAccountService(db, rm, f.creds, f.ledger, f.issuer, f.notifier, nopLogger{}, cfg)
	return f
}

func (f *fixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func (f *fixture) register(t *testing.T, email, username, password, code string) *models.User {
	t.Helper()
	f.expectTx(true)
	u, err := f.accounts.Register(context.Background(), RegisterRequest{
		Email: email, Username: username, Password: password, ReferralCode: code,
	})
	if err != nil {
		t.Fatalf("Register(%s) error: %v", username, err)
	}
	return u
}
