package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Category goAccount.Category `json:"category"`
	Error    string             `json:"error"`
}

// StatusFor maps an error category to its HTTP status.
func StatusFor(c goAccount.Category) int {
	switch c {
	case goAccount.CategoryValidation:
		return http.StatusBadRequest
	case goAccount.CategoryConflict:
		return http.StatusConflict
	case goAccount.CategoryAuthentication:
		return http.StatusUnauthorized
	case goAccount.CategoryAuthorization:
		return http.StatusForbidden
	case goAccount.CategoryNotFound:
		return http.StatusNotFound
	case goAccount.CategoryRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as JSON. Authentication failures share one message.
func WriteError(w http.ResponseWriter, err error) {
	category := goAccount.CategoryOf(err)
	msg := goAccount.PublicMessage(err)
	if category == goAccount.CategoryAuthentication && !isCredentialError(err) {
		msg = goAccount.ErrUnauthorized.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(category))
	_ = json.NewEncoder(w).Encode(ErrorBody{Category: category, Error: msg})
}

// Login and OAuth failures keep their own wording; token problems do not.
func isCredentialError(err error) bool {
	return errors.Is(err, goAccount.ErrInvalidCredentials) || errors.Is(err, goAccount.ErrIdentityRejected)
}
