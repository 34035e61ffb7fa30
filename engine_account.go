package goAccount

import (
	"context"
	"errors"
	"strings"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"go.uber.org/zap"
)

// Register creates a local account and returns a session token for it. All
// of name, email, password and role are required.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	req, role, err := e.validateRegistration(req)
	if err != nil {
		return nil, err
	}
	if role == RoleAdmin && !e.config.Account.AllowAdminSignup {
		return nil, ErrRoleNotAllowed
	}

	u, err := e.createLocalUser(ctx, req.Name, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.logger.Info("account registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return e.issueFor(u)
}

func (e *Engine) createLocalUser(ctx context.Context, name, email, plaintext string, role Role) (*User, error) {
	ctx, cancel := e.opContext(ctx)
	defer cancel()

	u := &User{Name: name, Email: email, Role: role}
	res := internalflows.RunCreateAccount(ctx, internalflows.CreateDeps[*User]{
		Lookup: func(ctx context.Context) error {
			_, err := e.users.GetUserByEmail(ctx, email)
			return err
		},
		Prepare: func(ctx context.Context) error {
			digest, err := e.hashPassword(ctx, plaintext)
			u.PasswordHash = digest
			return err
		},
		Create: func(ctx context.Context) (*User, error) {
			return u, e.users.CreateUser(ctx, u)
		},
		Errors: storeErrors,
	})

	switch res.Failure {
	case internalflows.CreateFailureNone:
		return res.Account, nil
	case internalflows.CreateFailureExists:
		e.metrics.Inc(MetricRegisterDuplicate)
		return nil, ErrEmailExists
	case internalflows.CreateFailureLookup:
		return nil, wrapStore("lookup email", res.Err)
	case internalflows.CreateFailurePrepare:
		return nil, res.Err
	default:
		return nil, wrapStore("create user", res.Err)
	}
}

// EnsureAdmin makes sure an Admin account exists for email, creating it with
// password when absent and promoting it when it exists with another role.
func (e *Engine) EnsureAdmin(ctx context.Context, name, email, plaintext string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	req, _, err := e.validateRegistration(RegisterRequest{Name: name, Email: email, Password: plaintext, Role: string(RoleAdmin)})
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := e.opContext(ctx)
	existing, err := e.users.GetUserByEmail(lookupCtx, req.Email)
	cancel()
	switch {
	case err == nil:
		if existing.Role == RoleAdmin {
			return existing.Public(), nil
		}
		role := RoleAdmin
		updateCtx, cancel := e.opContext(ctx)
		defer cancel()
		u, err := e.users.UpdateUser(updateCtx, existing.ID, UserUpdate{Role: &role})
		if err != nil {
			return nil, wrapStore("promote admin", err)
		}
		e.logger.Info("bootstrap account promoted to admin", zap.String("user_id", u.ID))
		return u.Public(), nil
	case !errors.Is(err, ErrStoreNotFound):
		return nil, wrapStore("lookup email", err)
	}

	u, err := e.createLocalUser(ctx, req.Name, req.Email, req.Password, RoleAdmin)
	if err != nil {
		return nil, err
	}
	e.logger.Info("bootstrap admin created", zap.String("user_id", u.ID))
	return u.Public(), nil
}

// GetProfile returns the account without credential material.
func (e *Engine) GetProfile(ctx context.Context, id string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	u, err := e.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore("get user", err)
	}
	return u.Public(), nil
}

// UpdateProfile changes the caller's name and/or email.
func (e *Engine) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	var update UserUpdate
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if !e.validName(name) {
			return nil, ErrInvalidName
		}
		update.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !validEmail(email) {
			return nil, ErrInvalidEmail
		}
		update.Email = &email
	}
	if update.empty() {
		return nil, ErrEmptyUpdate
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	u, err := e.users.UpdateUser(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, ErrStoreNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, ErrStoreDuplicate):
			return nil, ErrEmailExists
		}
		return nil, wrapStore("update user", err)
	}
	return u.Public(), nil
}

// DeleteUser permanently removes an account. Only admins may delete, and not
// their own account.
func (e *Engine) DeleteUser(ctx context.Context, caller *User, id string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.RequireRole(caller, RoleAdmin); err != nil {
		return err
	}
	if caller.ID == id {
		return ErrSelfDelete
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	if err := e.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return ErrUserNotFound
		}
		return wrapStore("delete user", err)
	}

	e.metrics.Inc(MetricUserDeleted)
	e.logger.Info("account deleted", zap.String("user_id", id), zap.String("by", caller.ID))
	return nil
}

// ListUsers returns every account. Admin only.
func (e *Engine) ListUsers(ctx context.Context, caller *User) ([]*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.RequireRole(caller, RoleAdmin); err != nil {
		return nil, err
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	users, err := e.users.ListUsers(ctx)
	if err != nil {
		return nil, wrapStore("list users", err)
	}
	out := make([]*User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}
