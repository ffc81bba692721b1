// Package handler exposes the REST endpoints and maps domain errors onto the
// HTTP status taxonomy.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelforge/modelforge/internal/auth"
	"github.com/modelforge/modelforge/internal/mailtoken"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("response encoding failed", slog.String("error", err.Error()))
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeErrorMessage(w, http.StatusBadRequest, message)
}

// writeError maps a domain error onto the response taxonomy. Auth failures
// are 4xx; only store connectivity surfaces as retryable 5xx.
func writeError(w http.ResponseWriter, err error) {
	if locked, ok := auth.AsLocked(err); ok {
		writeJSON(w, http.StatusLocked, map[string]any{
			"error":         http.StatusText(http.StatusLocked),
			"message":       "Account blocked",
			"blocked_until": locked.Until.Format(time.RFC3339),
			"block_reason":  locked.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrTokenNotFresh),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUserNotFound):
		writeErrorMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailUnverified):
		writeErrorMessage(w, http.StatusForbidden, "Email address not verified")
	case errors.Is(err, auth.ErrAccountDeleted):
		writeErrorMessage(w, http.StatusGone, "Account was deleted")
	case errors.Is(err, auth.ErrEmailExists):
		writeErrorMessage(w, http.StatusConflict, "Email already exists!")
	case errors.Is(err, mailtoken.ErrTokenExists):
		writeErrorMessage(w, http.StatusTooManyRequests, "Wait, email already sent.")
	case errors.Is(err, mailtoken.ErrTokenInvalid):
		badRequest(w, "Link is incorrect or expired.")
	case errors.Is(err, auth.ErrStoreUnavailable):
		slog.Error("store unavailable", slog.String("error", err.Error()))
		writeErrorMessage(w, http.StatusServiceUnavailable,
			"Service is temporarily unavailable, please try again later.")
	default:
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
