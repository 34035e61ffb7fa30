package goAccount

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// RequireRole is an exact-match check: Admin does not satisfy a User
// requirement.
func (e *Engine) RequireRole(u *User, role Role) error {
	if u == nil {
		return ErrUnauthorized
	}
	if u.Role != role {
		e.metrics.Inc(MetricAuthzDenied)
		return ErrForbidden
	}
	return nil
}

// AssignRole sets the role of targetID. Checks run in order: caller is
// Admin, role is valid, target exists, target is not the caller.
func (e *Engine) AssignRole(ctx context.Context, caller *User, targetID, role string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.RequireRole(caller, RoleAdmin); err != nil {
		return nil, err
	}
	newRole, ok := ParseRole(role)
	if !ok {
		return nil, ErrInvalidRole
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	if _, err := e.users.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore("get user", err)
	}
	if caller.ID == targetID {
		return nil, ErrSelfRoleChange
	}

	u, err := e.users.UpdateUser(ctx, targetID, UserUpdate{Role: &newRole})
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore("assign role", err)
	}

	e.metrics.Inc(MetricRoleAssigned)
	e.logger.Info("role assigned",
		zap.String("user_id", targetID),
		zap.String("role", string(newRole)),
		zap.String("by", caller.ID),
	)
	return u.Public(), nil
}
