// Package api is a small JSON client for the refkeeper HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/refkeeper/internal/common"
)

// Referral mirrors the server's referral record.
type Referral struct {
	ID             int64     `json:"id"`
	ReferrerID     int64     `json:"referrerId"`
	ReferredUserID *int64    `json:"referredUserId"`
	DateReferred   time.Time `json:"dateReferred"`
	Status         string    `json:"status"`
}

// RegisterRequest is the registration form.
type RegisterRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// ResetResult is the answer to a password reset request.
type ResetResult struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Register creates an account and returns the server's confirmation.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, identifier string, password []byte) (string, error) {
	req := struct {
		EmailOrUsername string `json:"emailOrUsername"`
		Password        string `json:"password"`
	}{identifier, string(password)}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*ResetResult, error) {
	req := struct {
		Email string `json:"email"`
	}{email}

	resp := &ResetResult{}
	if err := c.do(ctx, http.MethodPost, "/forgot-password", "", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Referrals(ctx context.Context, token string) ([]Referral, error) {
	var resp []Referral
	if err := c.do(ctx, http.MethodGet, "/referrals", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ReferralCount returns the number of successful referrals of the caller.
func (c *Client) ReferralCount(ctx context.Context, token string) (int, error) {
	var resp struct {
		ReferralCount int `json:"referralCount"`
	}
	if err := c.do(ctx, http.MethodGet, "/referral-stats", token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.ReferralCount, nil
}

// Ping reports whether the server and its database are up.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	// transport failures, including timeouts, mean the server is unreachable
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
