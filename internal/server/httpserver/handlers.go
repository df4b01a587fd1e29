package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/refkeeper/internal/logging"
	"github.com/dmitrijs2005/refkeeper/internal/server/models"
	"github.com/dmitrijs2005/refkeeper/internal/server/services"
)

// Accounts is the account service as seen by the handlers.
type Accounts interface {
	Register(ctx context.Context, req services.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
}

// Referrals is the read side of the referral ledger.
type Referrals interface {
	ListByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error)
	Stats(ctx context.Context, referrerID int64) (*models.ReferralStats, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	accounts  Accounts
	referrals Referrals
	db        Pinger
	logger    logging.Logger
}

func NewHandler(a Accounts, r Referrals, db Pinger, l logging.Logger) *Handler {
	return &Handler{accounts: a, referrals: r, db: db, logger: l}
}

type registerRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode"`
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken"`
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(r.Context(), w, http.StatusBadRequest, msgInvalidJSON, h.logger)
		return false
	}
	return true
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if blank(req.Email) || blank(req.Username) || req.Password == "" {
		respondWithError(ctx, w, http.StatusBadRequest, msgMissingFields, h.logger)
		return
	}

	_, err := h.accounts.Register(ctx, services.RegisterRequest{
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		writeServiceError(ctx, w, err, h.logger)
		return
	}

	respondWithJSON(ctx, w, http.StatusOK, messageResponse{Message: msgRegistered}, h.logger)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if blank(req.EmailOrUsername) || req.Password == "" {
		respondWithError(ctx, w, http.StatusBadRequest, msgMissingCreds, h.logger)
		return
	}

	token, err := h.accounts.Login(ctx, req.EmailOrUsername, req.Password)
	if err != nil {
		writeServiceError(ctx, w, err, h.logger)
		return
	}

	respondWithJSON(ctx, w, http.StatusOK, loginResponse{Token: token}, h.logger)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if blank(req.Email) {
		respondWithError(ctx, w, http.StatusBadRequest, msgEmailRequired, h.logger)
		return
	}

	token, err := h.accounts.ForgotPassword(ctx, req.Email)
	if err != nil {
		writeServiceError(ctx, w, err, h.logger)
		return
	}

	respondWithJSON(ctx, w, http.StatusOK, forgotPasswordResponse{Message: msgResetSent, ResetToken: token}, h.logger)
}

func (h *Handler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondWithError(ctx, w, http.StatusUnauthorized, msgInvalidToken, h.logger)
		return
	}

	refs, err := h.referrals.ListByReferrer(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err, h.logger)
		return
	}
	if refs == nil {
		refs = []*models.Referral{}
	}

	respondWithJSON(ctx, w, http.StatusOK, refs, h.logger)
}

func (h *Handler) ReferralStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondWithError(ctx, w, http.StatusUnauthorized, msgInvalidToken, h.logger)
		return
	}

	stats, err := h.referrals.Stats(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err, h.logger)
		return
	}

	respondWithJSON(ctx, w, http.StatusOK, stats, h.logger)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "health check failed", "error", err)
		respondWithError(ctx, w, http.StatusServiceUnavailable, msgDatabaseDown, h.logger)
		return
	}

	respondWithJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}
