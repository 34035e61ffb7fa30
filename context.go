package goAccount

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's address to ctx. Login rate limiting is
// keyed by it; without it the gate is skipped.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
