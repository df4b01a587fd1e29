package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/refkeeper/internal/client/api"
	"github.com/dmitrijs2005/refkeeper/internal/common"
)

var errNotLoggedIn = errors.New("not logged in, use 'login' first")

// Register prompts for email, username, password and an optional referral
// code and creates the account.
func (a *App) Register(ctx context.Context) error {
	email, err := a.input.Ask("Email")
	if err != nil {
		return err
	}

	username, err := a.input.Ask("Username")
	if err != nil {
		return err
	}

	password, err := a.input.Secret("Choose a password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	code, err := a.input.Ask("Referral code (empty for none)")
	if err != nil {
		return err
	}

	msg, err := a.api.Register(ctx, api.RegisterRequest{
		Email:        email,
		Username:     username,
		Password:     string(password),
		ReferralCode: code,
	})
	if err != nil {
		return err
	}

	printlnFn(msg)
	return nil
}

// Login authenticates with email or username and remembers the session.
func (a *App) Login(ctx context.Context) error {
	identifier, err := a.input.Ask("Email or username")
	if err != nil {
		return err
	}

	password, err := a.input.Secret("Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	if err := a.sessions.Save(ctx, identifier, token); err != nil {
		printlnFn("Warning: session not saved:", err)
	}

	a.userName, a.token = identifier, token
	printlnFn("Login successful")
	return nil
}

// ForgotPassword requests a reset token for an email address.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := a.input.Ask("Account email")
	if err != nil {
		return err
	}

	res, err := a.api.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}

	printlnFn(res.Message)
	printlnFn("Reset token:", res.ResetToken)
	return nil
}

// Logout forgets the in-memory and the saved session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Clear(ctx); err != nil {
		return err
	}
	a.userName, a.token = "", ""
	printlnFn("Logged out")
	return nil
}

// dropExpired clears the session when the server rejected the token.
func (a *App) dropExpired(ctx context.Context, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		_ = a.Logout(ctx)
		return errors.New("session expired, please log in again")
	}
	return err
}
