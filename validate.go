package goAccount

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLength = 8
	passwordSpecials  = "@$!%*?&"
)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validPassword requires at least 8 characters drawn from letters, digits and
// @$!%*?&, with at least one of each class.
func validPassword(pw string) bool {
	if len(pw) < minPasswordLength {
		return false
	}
	var letter, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return letter && digit && special
}

func (e *Engine) validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= e.config.Account.MaxNameLength
}

func (e *Engine) validateRegistration(req RegisterRequest) (RegisterRequest, Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Role = strings.TrimSpace(req.Role)

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return req, "", ErrMissingFields
	}
	if !validEmail(req.Email) {
		return req, "", ErrInvalidEmail
	}
	if !validPassword(req.Password) {
		return req, "", ErrWeakPassword
	}
	role, ok := ParseRole(req.Role)
	if !ok {
		return req, "", ErrInvalidRole
	}
	if !e.validName(req.Name) {
		return req, "", ErrInvalidName
	}
	return req, role, nil
}

func validateCredentials(email, pw string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || pw == "" {
		return email, ErrMissingFields
	}
	if !validEmail(email) {
		return email, ErrInvalidEmail
	}
	if !validPassword(pw) {
		return email, ErrWeakPassword
	}
	return email, nil
}
