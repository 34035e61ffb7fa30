package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
)

type RevokeFailureKind int

const (
	RevokeFailureNone RevokeFailureKind = iota
	RevokeFailureMissing
	RevokeFailureInvalid
	RevokeFailureBackend
)

type RevokeResult struct {
	Failure RevokeFailureKind
	Err     error
	Claims  *jwt.Claims
	// TTL is how long the blacklist entry was kept for; zero when the token
	// was already past acceptance and nothing was stored.
	TTL time.Duration
}

type Revoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// RevokeDeps captures logout dependencies. Now and Leeway must be the ones
// the token parser uses.
type RevokeDeps struct {
	ParseToken       func(string) (*jwt.Claims, error)
	Revocations      Revoker
	Now              func() time.Time
	Leeway           time.Duration
	OperationContext func(context.Context) (context.Context, context.CancelFunc)
}

// BlacklistTTL is how long an entry must live so that it outlasts the
// parser's acceptance of a token expiring at exp.
func BlacklistTTL(exp, now time.Time, leeway time.Duration) time.Duration {
	return exp.Add(leeway).Sub(now)
}

// RunRevoke blacklists a valid token until the parser would reject it anyway.
// A token already past that point is a successful no-op.
func RunRevoke(ctx context.Context, token string, deps RevokeDeps) RevokeResult {
	if token == "" {
		return RevokeResult{Failure: RevokeFailureMissing}
	}

	claims, err := deps.ParseToken(token)
	if err != nil {
		return RevokeResult{Failure: RevokeFailureInvalid, Err: err}
	}

	ttl := BlacklistTTL(claims.ExpiresAt.Time, deps.Now(), deps.Leeway)
	if ttl <= 0 {
		return RevokeResult{Claims: claims}
	}

	ctx, cancel := deps.OperationContext(ctx)
	defer cancel()

	if err := deps.Revocations.Revoke(ctx, token, ttl); err != nil {
		return RevokeResult{Failure: RevokeFailureBackend, Err: err, Claims: claims}
	}
	return RevokeResult{Claims: claims, TTL: ttl}
}
