package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/internal/stores"
)

type OTPFailureKind int

const (
	OTPFailureNone OTPFailureKind = iota
	// OTPFailureInvalid covers a missing, expired or wrong code.
	OTPFailureInvalid
	// OTPFailureExhausted is a wrong code that used up the last attempt; the
	// challenge is gone.
	OTPFailureExhausted
	// OTPFailureConsumed means another request completed the challenge first.
	OTPFailureConsumed
	OTPFailureBackend
)

type OTPVerifyResult struct {
	Failure OTPFailureKind
	Err     error
}

type OTPChallengeStore interface {
	Get(ctx context.Context, email string) (*stores.OTPChallenge, error)
	RecordFailure(ctx context.Context, email string, maxAttempts int) (bool, error)
	Delete(ctx context.Context, email string) (bool, error)
}

// OTPVerifyDeps captures login step-up dependencies. VerifyCode applies the
// configured tolerance.
type OTPVerifyDeps struct {
	Challenges  OTPChallengeStore
	VerifyCode  func(secret, code string, t time.Time) bool
	Now         func() time.Time
	MaxAttempts int
}

// RunVerifyOTP checks code against the pending challenge for email and
// consumes the challenge on success. Wrong codes count against MaxAttempts.
func RunVerifyOTP(ctx context.Context, email, code string, deps OTPVerifyDeps) OTPVerifyResult {
	challenge, err := deps.Challenges.Get(ctx, email)
	if err != nil {
		if isChallengeGone(err) {
			return OTPVerifyResult{Failure: OTPFailureInvalid}
		}
		return OTPVerifyResult{Failure: OTPFailureBackend, Err: err}
	}

	if !deps.VerifyCode(challenge.Secret, code, deps.Now()) {
		exceeded, err := deps.Challenges.RecordFailure(ctx, email, deps.MaxAttempts)
		if err != nil && !isChallengeGone(err) {
			return OTPVerifyResult{Failure: OTPFailureBackend, Err: err}
		}
		if exceeded {
			return OTPVerifyResult{Failure: OTPFailureExhausted}
		}
		return OTPVerifyResult{Failure: OTPFailureInvalid}
	}

	deleted, err := deps.Challenges.Delete(ctx, email)
	if err != nil {
		return OTPVerifyResult{Failure: OTPFailureBackend, Err: err}
	}
	if !deleted {
		return OTPVerifyResult{Failure: OTPFailureConsumed}
	}
	return OTPVerifyResult{}
}

func isChallengeGone(err error) bool {
	return errors.Is(err, stores.ErrOTPChallengeNotFound) || errors.Is(err, stores.ErrOTPChallengeExpired)
}
