// Package httpapi is the JSON HTTP surface of the account service. It
// decodes and validates request bodies, calls the engine and renders
// results; every decision is the engine's.
//
// Routes use net/http ServeMux method patterns. Protected routes go through
// middleware.Guard, admin routes through middleware.RequireRole.
package httpapi
