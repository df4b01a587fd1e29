package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/refkeeper/internal/client/api"
	"github.com/dmitrijs2005/refkeeper/internal/client/session"
	"github.com/dmitrijs2005/refkeeper/internal/common"
)

type fakeAPI struct {
	registered api.RegisterRequest
	regErr     error

	loginID  string
	loginPW  string
	token    string
	loginErr error

	reset     *api.ResetResult
	forgotErr error

	refs     []api.Referral
	count    int
	readErr  error
	gotToken string
}

func (f *fakeAPI) Register(_ context.Context, req api.RegisterRequest) (string, error) {
	f.registered = req
	if f.regErr != nil {
		return "", f.regErr
	}
	return "User registered successfully.", nil
}

func (f *fakeAPI) Login(_ context.Context, id string, pw []byte) (string, error) {
	f.loginID, f.loginPW = id, string(pw)
	return f.token, f.loginErr
}

func (f *fakeAPI) ForgotPassword(context.Context, string) (*api.ResetResult, error) {
	return f.reset, f.forgotErr
}

func (f *fakeAPI) Referrals(_ context.Context, token string) ([]api.Referral, error) {
	f.gotToken = token
	return f.refs, f.readErr
}

func (f *fakeAPI) ReferralCount(_ context.Context, token string) (int, error) {
	f.gotToken = token
	return f.count, f.readErr
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

type fakeSessions struct {
	saved   *session.Session
	saveErr error
	cleared bool
}

func (f *fakeSessions) Save(_ context.Context, username, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &session.Session{Username: username, Token: token}
	return nil
}

func (f *fakeSessions) Load(context.Context) (*session.Session, error) {
	if f.saved == nil {
		return nil, common.ErrorNotFound
	}
	return f.saved, nil
}

func (f *fakeSessions) Clear(context.Context) error {
	f.saved = nil
	f.cleared = true
	return nil
}

func (f *fakeSessions) Close() error { return nil }

// scripted answers prompts from fixed lists and records the labels asked.
type scripted struct {
	password string
	answers  []string
	labels   []string
}

func (s *scripted) Ask(label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scripted) Secret(label string) ([]byte, error) {
	s.labels = append(s.labels, label)
	return []byte(s.password), nil
}

// stubInputs feeds the given answers to successive text prompts.
func stubInputs(a *App, password string, answers ...string) *scripted {
	s := &scripted{password: password, answers: answers}
	a.input = s
	return s
}

func newTestApp() (*App, *fakeAPI, *fakeSessions) {
	f, s := &fakeAPI{}, &fakeSessions{}
	return &App{api: f, sessions: s}, f, s
}

func TestRegister_SendsForm(t *testing.T) {
	capturePrint(t)
	a, f, _ := newTestApp()
	in := stubInputs(a, "pw", "a@x.io", "alice", "CODE2345")

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, api.RegisterRequest{Email: "a@x.io", Username: "alice", Password: "pw", ReferralCode: "CODE2345"}, f.registered)
	assert.Equal(t, []string{"Email", "Username", "Choose a password", "Referral code (empty for none)"}, in.labels)
}

func TestRegister_Error(t *testing.T) {
	capturePrint(t)
	a, f, _ := newTestApp()
	f.regErr = &api.APIError{Status: 400, Message: "Invalid referral code."}
	stubInputs(a, "pw", "a@x.io", "alice", "nope")

	err := a.Register(context.Background())
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestLogin_SavesSession(t *testing.T) {
	capturePrint(t)
	a, f, s := newTestApp()
	f.token = "tok"
	stubInputs(a, "pw", "alice")

	require.NoError(t, a.Login(context.Background()))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(alice)", a.getStatus())
	assert.Equal(t, "pw", f.loginPW)
	require.NotNil(t, s.saved)
	assert.Equal(t, "tok", s.saved.Token)
}

func TestLogin_Failure(t *testing.T) {
	capturePrint(t)
	a, f, s := newTestApp()
	f.loginErr = api.ErrUnauthorized
	stubInputs(a, "bad", "alice")

	assert.ErrorIs(t, a.Login(context.Background()), api.ErrUnauthorized)
	assert.False(t, a.isLoggedIn())
	assert.Nil(t, s.saved)
}

func TestLogin_SessionSaveFailureIsNotFatal(t *testing.T) {
	capturePrint(t)
	a, f, s := newTestApp()
	f.token = "tok"
	s.saveErr = errors.New("disk full")
	stubInputs(a, "pw", "alice")

	require.NoError(t, a.Login(context.Background()))
	assert.True(t, a.isLoggedIn())
}

func TestForgotPassword_PrintsToken(t *testing.T) {
	out := capturePrint(t)
	a, f, _ := newTestApp()
	f.reset = &api.ResetResult{Message: "sent", ResetToken: "abc"}
	stubInputs(a, "", "a@x.io")

	require.NoError(t, a.ForgotPassword(context.Background()))
	assert.Contains(t, *out, "Reset token: abc")
}

func TestReferralCommands_RequireLogin(t *testing.T) {
	a, _, _ := newTestApp()

	assert.ErrorIs(t, a.Referrals(context.Background()), errNotLoggedIn)
	assert.ErrorIs(t, a.Stats(context.Background()), errNotLoggedIn)
}

func TestStats(t *testing.T) {
	out := capturePrint(t)
	a, f, _ := newTestApp()
	a.userName, a.token = "alice", "tok"
	f.count = 3

	require.NoError(t, a.Stats(context.Background()))
	assert.Equal(t, "tok", f.gotToken)
	assert.Contains(t, *out, fmt.Sprint("Successful referrals: ", 3))
}

func TestReferrals_Empty(t *testing.T) {
	out := capturePrint(t)
	a, _, _ := newTestApp()
	a.token = "tok"

	require.NoError(t, a.Referrals(context.Background()))
	assert.Contains(t, *out, "No referrals yet")
}

func TestReferrals_ExpiredSessionLogsOut(t *testing.T) {
	capturePrint(t)
	a, f, s := newTestApp()
	a.userName, a.token = "alice", "old"
	s.saved = &session.Session{Username: "alice", Token: "old"}
	f.readErr = &api.APIError{Status: 401, Message: "Token expired."}

	err := a.Referrals(context.Background())
	require.Error(t, err)
	assert.False(t, a.isLoggedIn())
	assert.True(t, s.cleared)
}

func TestRestoreSession(t *testing.T) {
	capturePrint(t)
	a, _, s := newTestApp()

	a.restoreSession(context.Background())
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "(guest)", a.getStatus())

	s.saved = &session.Session{Username: "bob", Token: "tok"}
	a.restoreSession(context.Background())
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(bob)", a.getStatus())
}
