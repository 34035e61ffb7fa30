package goAccount

import (
	"context"
	"strings"
	"time"
)

// Role is the closed set of authorization roles. Checks are exact matches;
// there is no hierarchy between roles.
type Role string

const (
	RoleGuest Role = "Guest"
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// DefaultRole is assigned to accounts created without an explicit role.
const DefaultRole = RoleGuest

// ParseRole accepts the canonical spelling only.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleGuest, RoleUser, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

// User is the persisted account. A local account has Email and PasswordHash;
// a federated account has AccountID and Provider. PasswordHash is never
// serialized to clients.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	AccountID    string    `bson:"account_id,omitempty" json:"accountId,omitempty"`
	Provider     string    `bson:"provider,omitempty" json:"provider,omitempty"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// Public returns a copy without credential material.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

// UserUpdate lists the fields to change. Nil fields are left untouched.
type UserUpdate struct {
	Name  *string
	Email *string
	Role  *Role
}

func (u UserUpdate) empty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil
}

// UserStore persists accounts. Implementations must enforce uniqueness of
// Email and of the (AccountID, Provider) pair, returning ErrStoreDuplicate on
// violation, and ErrStoreNotFound for missing records.
type UserStore interface {
	// CreateUser assigns u.ID, CreatedAt and UpdatedAt and inserts the record.
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByIdentity(ctx context.Context, accountID, provider string) (*User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*User, error)
}

// RevocationList is the token blacklist. Revoke must be idempotent and keep
// the entry for at least ttl; it may drop it afterwards.
type RevocationList interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Notifier delivers out-of-band messages such as login codes.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

// ExternalIdentity is what a third-party provider asserts about the caller
// after a successful callback.
type ExternalIdentity struct {
	Provider    string
	SubjectID   string
	Username    string
	DisplayName string
	Email       string
}

// RegisterRequest is the input of [Engine.Register].
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// ProfileUpdate is the input of [Engine.UpdateProfile].
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// AuthResult is a freshly issued session token and its owner.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// LoginResult is returned by [Engine.Login]. When OTPRequired is set no token
// was issued; the caller must complete [Engine.VerifyLoginOTP].
type LoginResult struct {
	AuthResult
	OTPRequired bool
	OTPValidity time.Duration
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
