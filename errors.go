package goAccount

import (
	"errors"
	"fmt"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// Category classifies every error the engine returns. Transports map
// categories to status codes; callers branch on categories, not messages.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryConflict       Category = "conflict"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryNotFound       Category = "not_found"
	CategoryRateLimited    Category = "rate_limited"
	CategoryInternal       Category = "internal"
)

// Error is a categorized engine error. Message is safe to show to clients;
// the wrapped cause is not.
type Error struct {
	Category Category
	Message  string
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches sentinels by category and message so a wrapped internal error
// still satisfies errors.Is(err, ErrInternal).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.cause == nil && t.Category == e.Category && t.Message == e.Message
}

func newError(c Category, msg string) *Error {
	return &Error{Category: c, Message: msg}
}

var (
	ErrMissingFields   = newError(CategoryValidation, "all fields are required")
	ErrInvalidEmail    = newError(CategoryValidation, "invalid email format")
	ErrWeakPassword    = newError(CategoryValidation, "password must be at least 8 characters and contain a letter, a number and a special character (@$!%*?&)")
	ErrInvalidRole     = newError(CategoryValidation, "invalid role")
	ErrInvalidName     = newError(CategoryValidation, "invalid name")
	ErrEmptyUpdate     = newError(CategoryValidation, "no fields to update")
	ErrSelfRoleChange  = newError(CategoryValidation, "cannot change your own role")
	ErrSelfDelete      = newError(CategoryValidation, "cannot delete your own account")
	ErrOTPInvalid      = newError(CategoryValidation, "invalid or expired code")
	ErrInvalidIdentity = newError(CategoryValidation, "invalid external identity")

	ErrEmailExists = newError(CategoryConflict, "email already registered")

	ErrInvalidCredentials = newError(CategoryAuthentication, "invalid credentials")
	ErrUnauthorized       = newError(CategoryAuthentication, "unauthorized")
	ErrTokenMissing       = newError(CategoryAuthentication, "missing or malformed authorization header")
	ErrTokenInvalid       = newError(CategoryAuthentication, "invalid or expired token")
	ErrTokenRevoked       = newError(CategoryAuthentication, "token revoked")
	ErrIdentityRejected   = newError(CategoryAuthentication, "external authentication failed")

	ErrForbidden      = newError(CategoryAuthorization, "access denied")
	ErrRoleNotAllowed = newError(CategoryAuthorization, "role not allowed for self-registration")

	ErrUserNotFound = newError(CategoryNotFound, "user not found")

	ErrRateLimited = newError(CategoryRateLimited, "too many attempts, try again later")

	ErrInternal       = newError(CategoryInternal, "internal server error")
	ErrEngineNotReady = newError(CategoryInternal, "engine not initialized")
)

// Store-level conditions. UserStore implementations return these (possibly
// wrapped); the engine translates them into categorized errors.
var (
	ErrStoreNotFound  = errors.New("store: record not found")
	ErrStoreDuplicate = errors.New("store: duplicate key")
)

var storeErrors = internalflows.StoreErrors{
	IsNotFound:  func(err error) bool { return errors.Is(err, ErrStoreNotFound) },
	IsDuplicate: func(err error) bool { return errors.Is(err, ErrStoreDuplicate) },
}

func internalError(cause error) error {
	return &Error{Category: CategoryInternal, Message: ErrInternal.Message, cause: cause}
}

func wrapStore(op string, err error) error {
	return internalError(fmt.Errorf("%s: %w", op, err))
}

// CategoryOf returns the category of err. Errors that are not engine errors
// are internal.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

// PublicMessage is the client-safe text for err. Internal causes are never
// included.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}
