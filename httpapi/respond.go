package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var errBadBody = &goAccount.Error{Category: goAccount.CategoryValidation, Message: "invalid request body"}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if goAccount.CategoryOf(err) == goAccount.CategoryInternal {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	middleware.WriteError(w, err)
}

// decode reads a JSON body into dst and validates its tags. Tag failures map
// to the engine's own validation errors, missing fields first.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}

	err := s.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errBadBody
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return goAccount.ErrMissingFields
		}
	}
	for _, fe := range verrs {
		if fe.Tag() == "email" {
			return goAccount.ErrInvalidEmail
		}
	}
	return errBadBody
}

type publicUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Provider  string `json:"provider,omitempty"`
	AccountID string `json:"accountId,omitempty"`
}

func toPublic(u *goAccount.User) *publicUser {
	if u == nil {
		return nil
	}
	return &publicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Provider:  u.Provider,
		AccountID: u.AccountID,
	}
}
