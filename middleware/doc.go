// Package middleware is the HTTP side of the authorization guard.
//
// [Guard] reads the bearer token, resolves it to an account through
// Engine.Authenticate and stores the account in the request context.
// [RequireRole] additionally enforces an exact role match. Every
// authentication failure gets the same 401 body so clients cannot tell a
// revoked token from an expired one.
//
// The package makes no decisions of its own; it maps engine errors to status
// codes with [WriteError].
package middleware
