package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/refkeeper/internal/common"
	"github.com/dmitrijs2005/refkeeper/internal/logging"
)

const (
	msgRegistered       = "User registered successfully."
	msgResetSent        = "Password reset link has been sent to your email."
	msgMissingFields    = "Missing required fields."
	msgMissingCreds     = "Missing credentials."
	msgEmailRequired    = "Email is required."
	msgInvalidJSON      = "Invalid request body."
	msgDuplicate        = "Email or username already in use."
	msgInvalidReferral  = "Invalid referral code."
	msgUnknownUser      = "User with this email does not exist."
	msgInvalidCreds     = "Invalid credentials."
	msgMissingToken     = "Missing bearer token."
	msgInvalidToken     = "Invalid token."
	msgTokenExpired     = "Token expired."
	msgInternal         = "internal error"
	msgDatabaseDown     = "database unavailable"
	headerContentType   = "Content-Type"
	mimeApplicationJSON = "application/json"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(ctx context.Context, w http.ResponseWriter, code int, payload any, logger logging.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error(ctx, "failed to marshal JSON response", "error", err)
		w.Header().Set(headerContentType, mimeApplicationJSON)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set(headerContentType, mimeApplicationJSON)
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error(ctx, "failed to write HTTP response", "error", err)
	}
}

func respondWithError(ctx context.Context, w http.ResponseWriter, code int, message string, logger logging.Logger) {
	respondWithJSON(ctx, w, code, errorResponse{Error: message}, logger)
}

// writeServiceError maps a service error onto a status and client message.
// Errors without a mapping are logged and reported as 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, logger logging.Logger) {
	code, msg := http.StatusInternalServerError, msgInternal

	switch {
	case errors.Is(err, common.ErrorDuplicateIdentity):
		code, msg = http.StatusBadRequest, msgDuplicate
	case errors.Is(err, common.ErrorInvalidReferralCode):
		code, msg = http.StatusBadRequest, msgInvalidReferral
	case errors.Is(err, common.ErrorUnknownUser):
		code, msg = http.StatusBadRequest, msgUnknownUser
	case errors.Is(err, common.ErrorValidation):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorInvalidCredentials):
		code, msg = http.StatusUnauthorized, msgInvalidCreds
	case errors.Is(err, common.ErrTokenExpired):
		code, msg = http.StatusUnauthorized, msgTokenExpired
	case errors.Is(err, common.ErrInvalidToken):
		code, msg = http.StatusUnauthorized, msgInvalidToken
	default:
		logger.Error(ctx, "request failed", "error", err)
	}

	respondWithError(ctx, w, code, msg, logger)
}
