package goAccount

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/internal/rate"
	"github.com/MrEthical07/goAccount/internal/stores"
	"go.uber.org/zap"
)

// Login checks email and password. With OTP step-up enabled it sends a code
// to the account's address and returns OTPRequired without a token;
// otherwise it returns a token. Unknown email and wrong password are
// indistinguishable.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email, err := validateCredentials(email, plaintext)
	if err != nil {
		return nil, err
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	if err := e.rateLimiter.Allow(ctx, clientIPFromContext(ctx)); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metrics.Inc(MetricLoginRateLimited)
			return nil, ErrRateLimited
		}
		return nil, internalError(err)
	}

	u, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrStoreNotFound) {
			return nil, wrapStore("lookup email", err)
		}
		e.burnVerify(ctx, plaintext)
		return nil, e.loginFailed("unknown_email", "")
	}
	if !u.HasPassword() {
		e.burnVerify(ctx, plaintext)
		return nil, e.loginFailed("no_local_password", u.ID)
	}

	ok, err := e.verifyPassword(ctx, plaintext, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.loginFailed("wrong_password", u.ID)
	}

	if e.config.Password.UpgradeOnLogin && e.hasher.NeedsRehash(u.PasswordHash) {
		e.rehash(ctx, u.ID, plaintext)
	}

	if e.config.OTP.RequireForLogin {
		validity, err := e.startOTPChallenge(ctx, u)
		if err != nil {
			return nil, err
		}
		return &LoginResult{OTPRequired: true, OTPValidity: validity}, nil
	}

	res, err := e.issueFor(u)
	if err != nil {
		return nil, err
	}
	e.metrics.Inc(MetricLoginSuccess)
	return &LoginResult{AuthResult: *res}, nil
}

func (e *Engine) loginFailed(reason, userID string) error {
	e.metrics.Inc(MetricLoginFailure)
	e.logger.Info("login failed", zap.String("reason", reason), zap.String("user_id", userID))
	return ErrInvalidCredentials
}

// rehash replaces a weak digest. Failure is logged and does not fail the login.
func (e *Engine) rehash(ctx context.Context, userID, plaintext string) {
	digest, err := e.hashPassword(ctx, plaintext)
	if err == nil {
		err = e.users.UpdatePasswordHash(ctx, userID, digest)
	}
	if err != nil {
		e.logger.Warn("password rehash failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	e.metrics.Inc(MetricPasswordRehashed)
}

/*
====================================
OTP STEP-UP
====================================
*/

// OTPValidity is the window a delivered code is guaranteed to be honoured
// for: the TOTP acceptance window counted from the end of the send step,
// capped by the challenge lifetime.
func (e *Engine) OTPValidity() time.Duration {
	validity := e.otp.CodeLifetime()
	if ttl := e.config.OTP.ChallengeTTL; ttl < validity {
		validity = ttl
	}
	return validity
}

func (e *Engine) startOTPChallenge(ctx context.Context, u *User) (time.Duration, error) {
	secret, err := e.otp.NewSecret(u.Email)
	if err != nil {
		return 0, internalError(err)
	}
	now := e.now()
	code, err := e.otp.Generate(secret, now)
	if err != nil {
		return 0, internalError(err)
	}

	record := &stores.OTPChallenge{
		Secret:    secret,
		ExpiresAt: now.Add(e.config.OTP.ChallengeTTL).Unix(),
	}
	if err := e.otpChallenges.Save(ctx, u.Email, record, e.config.OTP.ChallengeTTL); err != nil {
		return 0, internalError(err)
	}

	validity := e.OTPValidity()
	body := fmt.Sprintf("Your login code is %s. It is valid for %s.", code, humanDuration(validity))
	if err := e.notifier.Notify(ctx, u.Email, "Your login code", body); err != nil {
		_, _ = e.otpChallenges.Delete(ctx, u.Email)
		return 0, internalError(err)
	}

	e.metrics.Inc(MetricOTPSent)
	e.logger.Info("login code sent", zap.String("user_id", u.ID))
	return validity, nil
}

// VerifyLoginOTP completes a step-up login. A missing, expired, wrong or
// exhausted challenge all report ErrOTPInvalid.
func (e *Engine) VerifyLoginOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return nil, ErrMissingFields
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	u, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStore("lookup email", err)
	}

	res := internalflows.RunVerifyOTP(ctx, email, code, e.flows.OTP)
	switch res.Failure {
	case internalflows.OTPFailureNone:
	case internalflows.OTPFailureBackend:
		return nil, internalError(res.Err)
	case internalflows.OTPFailureExhausted:
		e.metrics.Inc(MetricOTPFailure)
		e.metrics.Inc(MetricOTPAttemptsExceeded)
		e.logger.Warn("login code attempts exhausted", zap.String("user_id", u.ID))
		return nil, ErrOTPInvalid
	default:
		e.metrics.Inc(MetricOTPFailure)
		return nil, ErrOTPInvalid
	}

	auth, err := e.issueFor(u)
	if err != nil {
		return nil, err
	}
	e.metrics.Inc(MetricOTPSuccess)
	e.metrics.Inc(MetricLoginSuccess)
	return auth, nil
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}
