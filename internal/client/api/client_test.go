package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRegister(t *testing.T) {
	var got RegisterRequest
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully."})
	})

	msg, err := c.Register(context.Background(), RegisterRequest{Email: "a@x.io", Username: "alice", Password: "pw", ReferralCode: "CODE2345"})
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully.", msg)
	assert.Equal(t, "CODE2345", got.ReferralCode)
}

func TestRegister_APIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid referral code."})
	})

	_, err := c.Register(context.Background(), RegisterRequest{Email: "a@x.io"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid referral code.", apiErr.Message)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestLogin(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["emailOrUsername"] == "alice" && body["password"] == "pw" {
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials."})
	})

	token, err := c.Login(context.Background(), "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = c.Login(context.Background(), "alice", []byte("bad"))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestForgotPassword(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forgot-password", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"message": "sent", "resetToken": "abc"})
	})

	res, err := c.ForgotPassword(context.Background(), "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.ResetToken)
	assert.Equal(t, "sent", res.Message)
}

func TestReferralsAndCount_SendBearer(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token."})
			return
		}
		switch r.URL.Path {
		case "/referrals":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 1, "referrerId": 1, "referredUserId": 2, "dateReferred": "2024-05-01T12:00:00Z", "status": "successful"},
			})
		case "/referral-stats":
			writeJSON(w, http.StatusOK, map[string]int{"referralCount": 1})
		}
	})
	ctx := context.Background()

	refs, err := c.Referrals(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].ReferredUserID)
	assert.Equal(t, int64(2), *refs[0].ReferredUserID)
	assert.Equal(t, "successful", refs[0].Status)

	n, err := c.ReferralCount(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = c.Referrals(ctx, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUnavailable(t *testing.T) {
	t.Run("5xx", func(t *testing.T) {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "database unavailable"})
		})
		assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewClient(url, time.Second)
		assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
	})
}

func TestPing(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	assert.NoError(t, c.Ping(context.Background()))
}
