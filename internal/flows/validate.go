package flows

import (
	"context"

	"github.com/MrEthical07/goAccount/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureInvalid
	ValidateFailureRevoked
	ValidateFailureBackend
)

type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ValidateDeps captures token validation dependencies.
type ValidateDeps struct {
	ParseToken  func(string) (*jwt.Claims, error)
	Revocations RevocationChecker
	// OperationContext bounds the blacklist round trip.
	OperationContext func(context.Context) (context.Context, context.CancelFunc)
}

// RunValidate parses token and checks the blacklist. The signature is
// checked first so garbage never reaches the store.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) ValidateResult {
	if token == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, err := deps.ParseToken(token)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureInvalid, Err: err}
	}

	ctx, cancel := deps.OperationContext(ctx)
	defer cancel()

	revoked, err := deps.Revocations.IsRevoked(ctx, token)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureBackend, Err: err}
	}
	if revoked {
		return ValidateResult{Failure: ValidateFailureRevoked, Claims: claims}
	}
	return ValidateResult{Claims: claims}
}
