package goAccount

import (
	"context"
	"errors"
	"sync"
	"time"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/internal/rate"
	"github.com/MrEthical07/goAccount/internal/stores"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/otp"
	"github.com/MrEthical07/goAccount/password"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Engine implements every account and session operation. It is immutable
// after [Builder.Build] and safe for concurrent use.
type Engine struct {
	config        Config
	users         UserStore
	otpChallenges *stores.OTPChallengeStore
	otp           *otp.Service
	notifier      Notifier
	rateLimiter   *rate.Limiter
	hasher        *password.Hasher
	hashSlots     *semaphore.Weighted
	jwtManager    *jwt.Manager
	metrics       *Metrics
	logger        *zap.Logger
	now           func() time.Time
	flows         internalflows.Deps

	dummyOnce sync.Once
	dummyHash string
}

// MetricsSnapshot returns the current counters for the exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() error {
	if e == nil || e.users == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Security.OperationTimeout)
}

/*
====================================
PASSWORDS
====================================
*/

func (e *Engine) hashPassword(ctx context.Context, plaintext string) (string, error) {
	if err := e.hashSlots.Acquire(ctx, 1); err != nil {
		return "", internalError(err)
	}
	defer e.hashSlots.Release(1)

	digest, err := e.hasher.Hash(plaintext)
	if err != nil {
		return "", internalError(err)
	}
	return digest, nil
}

func (e *Engine) verifyPassword(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := e.hashSlots.Acquire(ctx, 1); err != nil {
		return false, internalError(err)
	}
	defer e.hashSlots.Release(1)

	return e.hasher.Verify(plaintext, digest), nil
}

// burnVerify spends the same work as a real verification so unknown emails
// are not distinguishable by response time.
func (e *Engine) burnVerify(ctx context.Context, plaintext string) {
	e.dummyOnce.Do(func() {
		e.dummyHash, _ = e.hasher.Hash("goaccount-timing-equalizer")
	})
	if e.dummyHash != "" {
		_, _ = e.verifyPassword(ctx, plaintext, e.dummyHash)
	}
}

/*
====================================
TOKENS
====================================
*/

// IssueToken signs a session token for userID.
func (e *Engine) IssueToken(userID string) (string, time.Time, error) {
	if err := e.ready(); err != nil {
		return "", time.Time{}, err
	}
	token, claims, err := e.jwtManager.Issue(userID)
	if err != nil {
		return "", time.Time{}, internalError(err)
	}
	e.metrics.Inc(MetricTokenIssued)
	return token, claims.ExpiresAt.Time, nil
}

func (e *Engine) issueFor(u *User) (*AuthResult, error) {
	token, exp, err := e.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u.Public()}, nil
}

// ValidateToken checks signature, expiry and the blacklist and returns the
// user id the token was issued to.
func (e *Engine) ValidateToken(ctx context.Context, token string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	res := internalflows.RunValidate(ctx, token, e.flows.Validate)
	switch res.Failure {
	case internalflows.ValidateFailureNone:
		return res.Claims.UID, nil
	case internalflows.ValidateFailureMissing:
		return "", ErrTokenMissing
	case internalflows.ValidateFailureInvalid:
		e.metrics.Inc(MetricTokenRejected)
		return "", ErrTokenInvalid
	case internalflows.ValidateFailureRevoked:
		e.metrics.Inc(MetricTokenRejected)
		return "", ErrTokenRevoked
	default:
		return "", internalError(res.Err)
	}
}

// Authenticate validates token and loads its owner. A token whose user no
// longer exists is rejected as unauthorized.
func (e *Engine) Authenticate(ctx context.Context, token string) (*User, error) {
	uid, err := e.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	u, err := e.users.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			e.metrics.Inc(MetricTokenRejected)
			return nil, ErrUnauthorized
		}
		return nil, wrapStore("load token owner", err)
	}
	return u, nil
}

// Revoke blacklists token for as long as the parser would still accept it,
// exp plus the configured leeway on the engine clock. Revoking the same token
// again succeeds.
func (e *Engine) Revoke(ctx context.Context, token string) error {
	if err := e.ready(); err != nil {
		return err
	}

	res := internalflows.RunRevoke(ctx, token, e.flows.Revoke)
	switch res.Failure {
	case internalflows.RevokeFailureNone:
	case internalflows.RevokeFailureMissing:
		return ErrTokenMissing
	case internalflows.RevokeFailureInvalid:
		return ErrTokenInvalid
	default:
		return internalError(res.Err)
	}

	e.metrics.Inc(MetricTokenRevoked)
	e.logger.Info("token revoked",
		zap.String("user_id", res.Claims.UID),
		zap.String("jti", res.Claims.ID),
		zap.Duration("ttl", res.TTL),
	)
	return nil
}
