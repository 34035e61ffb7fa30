package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goAccount/internal/stores"
	"github.com/MrEthical07/goAccount/jwt"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
	errBackend   = errors.New("backend down")
)

var testStoreErrors = StoreErrors{
	IsNotFound:  func(err error) bool { return errors.Is(err, errNotFound) },
	IsDuplicate: func(err error) bool { return errors.Is(err, errDuplicate) },
}

func noTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

func parseAs(exp time.Time) func(string) (*jwt.Claims, error) {
	return func(token string) (*jwt.Claims, error) {
		if token != "good" {
			return nil, errors.New("bad signature")
		}
		return &jwt.Claims{UID: "u1", RegisteredClaims: gjwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: gjwt.NewNumericDate(exp),
		}}, nil
	}
}

type fakeRevocations struct {
	revoked map[string]time.Duration
	err     error
}

func (f *fakeRevocations) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = map[string]time.Duration{}
	}
	f.revoked[token] = ttl
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[token]
	return ok, nil
}

func TestRunValidate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	revs := &fakeRevocations{revoked: map[string]time.Duration{}}
	deps := ValidateDeps{ParseToken: parseAs(now.Add(time.Hour)), Revocations: revs, OperationContext: noTimeout}

	if res := RunValidate(context.Background(), "", deps); res.Failure != ValidateFailureMissing {
		t.Fatalf("empty token: got %v", res.Failure)
	}
	if res := RunValidate(context.Background(), "forged", deps); res.Failure != ValidateFailureInvalid || res.Err == nil {
		t.Fatalf("forged token: got %+v", res)
	}
	res := RunValidate(context.Background(), "good", deps)
	if res.Failure != ValidateFailureNone || res.Claims == nil || res.Claims.UID != "u1" {
		t.Fatalf("good token: got %+v", res)
	}

	revs.revoked["good"] = time.Hour
	if res := RunValidate(context.Background(), "good", deps); res.Failure != ValidateFailureRevoked {
		t.Fatalf("revoked token: got %v", res.Failure)
	}

	revs.err = errBackend
	if res := RunValidate(context.Background(), "good", deps); res.Failure != ValidateFailureBackend || !errors.Is(res.Err, errBackend) {
		t.Fatalf("backend failure: got %+v", res)
	}
}

func TestRunValidateSkipsStoreForInvalidToken(t *testing.T) {
	revs := &fakeRevocations{err: errBackend}
	deps := ValidateDeps{ParseToken: parseAs(time.Now().Add(time.Hour)), Revocations: revs, OperationContext: noTimeout}
	if res := RunValidate(context.Background(), "forged", deps); res.Failure != ValidateFailureInvalid {
		t.Fatalf("expected invalid before backend, got %v", res.Failure)
	}
}

func TestRunRevokeKeepsEntryThroughLeeway(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	revs := &fakeRevocations{}
	deps := RevokeDeps{
		ParseToken:       parseAs(now.Add(10 * time.Minute)),
		Revocations:      revs,
		Now:              func() time.Time { return now },
		Leeway:           time.Minute,
		OperationContext: noTimeout,
	}

	res := RunRevoke(context.Background(), "good", deps)
	if res.Failure != RevokeFailureNone {
		t.Fatalf("revoke: got %+v", res)
	}
	if res.TTL != 11*time.Minute || revs.revoked["good"] != 11*time.Minute {
		t.Fatalf("expected ttl of exp+leeway, got result %v stored %v", res.TTL, revs.revoked["good"])
	}
}

func TestRunRevokeStoresNothingPastAcceptance(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	revs := &fakeRevocations{}
	deps := RevokeDeps{
		ParseToken:       parseAs(now.Add(-time.Minute)),
		Revocations:      revs,
		Now:              func() time.Time { return now },
		Leeway:           time.Minute,
		OperationContext: noTimeout,
	}

	res := RunRevoke(context.Background(), "good", deps)
	if res.Failure != RevokeFailureNone || res.TTL != 0 {
		t.Fatalf("expected no-op success, got %+v", res)
	}
	if len(revs.revoked) != 0 {
		t.Fatalf("expected nothing stored, got %v", revs.revoked)
	}
}

func TestRunRevokeFailures(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	revs := &fakeRevocations{err: errBackend}
	deps := RevokeDeps{
		ParseToken:       parseAs(now.Add(time.Hour)),
		Revocations:      revs,
		Now:              func() time.Time { return now },
		OperationContext: noTimeout,
	}

	if res := RunRevoke(context.Background(), "", deps); res.Failure != RevokeFailureMissing {
		t.Fatalf("empty token: got %v", res.Failure)
	}
	if res := RunRevoke(context.Background(), "forged", deps); res.Failure != RevokeFailureInvalid {
		t.Fatalf("forged token: got %v", res.Failure)
	}
	if res := RunRevoke(context.Background(), "good", deps); res.Failure != RevokeFailureBackend || res.Claims == nil {
		t.Fatalf("backend failure: got %+v", res)
	}
}

type fakeChallenges struct {
	challenge *stores.OTPChallenge
	failures  int
	deleted   bool
	getErr    error
}

func (f *fakeChallenges) Get(context.Context, string) (*stores.OTPChallenge, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.challenge == nil {
		return nil, stores.ErrOTPChallengeNotFound
	}
	return f.challenge, nil
}

func (f *fakeChallenges) RecordFailure(_ context.Context, _ string, maxAttempts int) (bool, error) {
	f.failures++
	if f.failures >= maxAttempts {
		f.challenge = nil
		return true, nil
	}
	return false, nil
}

func (f *fakeChallenges) Delete(context.Context, string) (bool, error) {
	if f.challenge == nil || f.deleted {
		return false, nil
	}
	f.deleted = true
	return true, nil
}

func otpDeps(ch *fakeChallenges) OTPVerifyDeps {
	return OTPVerifyDeps{
		Challenges:  ch,
		VerifyCode:  func(secret, code string, _ time.Time) bool { return secret == "s" && code == "123456" },
		Now:         time.Now,
		MaxAttempts: 3,
	}
}

func TestRunVerifyOTP(t *testing.T) {
	ch := &fakeChallenges{challenge: &stores.OTPChallenge{Secret: "s"}}
	deps := otpDeps(ch)

	if res := RunVerifyOTP(context.Background(), "a@b.c", "000000", deps); res.Failure != OTPFailureInvalid {
		t.Fatalf("wrong code: got %v", res.Failure)
	}
	if res := RunVerifyOTP(context.Background(), "a@b.c", "123456", deps); res.Failure != OTPFailureNone {
		t.Fatalf("right code: got %+v", res)
	}
	if res := RunVerifyOTP(context.Background(), "a@b.c", "123456", deps); res.Failure != OTPFailureConsumed {
		t.Fatalf("replayed code: got %v", res.Failure)
	}
}

func TestRunVerifyOTPExhaustsChallenge(t *testing.T) {
	ch := &fakeChallenges{challenge: &stores.OTPChallenge{Secret: "s"}}
	deps := otpDeps(ch)

	for i := 0; i < 2; i++ {
		if res := RunVerifyOTP(context.Background(), "a@b.c", "000000", deps); res.Failure != OTPFailureInvalid {
			t.Fatalf("attempt %d: got %v", i+1, res.Failure)
		}
	}
	if res := RunVerifyOTP(context.Background(), "a@b.c", "000000", deps); res.Failure != OTPFailureExhausted {
		t.Fatalf("last attempt: got %v", res.Failure)
	}
	if res := RunVerifyOTP(context.Background(), "a@b.c", "123456", deps); res.Failure != OTPFailureInvalid {
		t.Fatalf("after exhaustion the right code must fail, got %v", res.Failure)
	}
}

func TestRunVerifyOTPBackendAndMissing(t *testing.T) {
	if res := RunVerifyOTP(context.Background(), "a@b.c", "123456", otpDeps(&fakeChallenges{})); res.Failure != OTPFailureInvalid {
		t.Fatalf("no challenge: got %v", res.Failure)
	}
	expired := &fakeChallenges{getErr: stores.ErrOTPChallengeExpired}
	if res := RunVerifyOTP(context.Background(), "a@b.c", "123456", otpDeps(expired)); res.Failure != OTPFailureInvalid {
		t.Fatalf("expired challenge: got %v", res.Failure)
	}
	down := &fakeChallenges{getErr: stores.ErrOTPChallengeBackend}
	if res := RunVerifyOTP(context.Background(), "a@b.c", "123456", otpDeps(down)); res.Failure != OTPFailureBackend {
		t.Fatalf("backend failure: got %v", res.Failure)
	}
}

func TestRunCreateAccount(t *testing.T) {
	prepared := false
	deps := CreateDeps[string]{
		Lookup:  func(context.Context) error { return errNotFound },
		Prepare: func(context.Context) error { prepared = true; return nil },
		Create:  func(context.Context) (string, error) { return "acct", nil },
		Errors:  testStoreErrors,
	}
	res := RunCreateAccount(context.Background(), deps)
	if res.Failure != CreateFailureNone || res.Account != "acct" || !prepared {
		t.Fatalf("create: got %+v prepared=%v", res, prepared)
	}
}

func TestRunCreateAccountFailures(t *testing.T) {
	cases := []struct {
		name    string
		lookup  error
		prepare error
		create  error
		want    CreateFailureKind
	}{
		{name: "taken", lookup: nil, want: CreateFailureExists},
		{name: "lookup down", lookup: errBackend, want: CreateFailureLookup},
		{name: "prepare fails", lookup: errNotFound, prepare: errBackend, want: CreateFailurePrepare},
		{name: "insert race", lookup: errNotFound, create: errDuplicate, want: CreateFailureExists},
		{name: "insert down", lookup: errNotFound, create: errBackend, want: CreateFailureCreate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prepared := false
			res := RunCreateAccount(context.Background(), CreateDeps[string]{
				Lookup:  func(context.Context) error { return tc.lookup },
				Prepare: func(context.Context) error { prepared = true; return tc.prepare },
				Create:  func(context.Context) (string, error) { return "", tc.create },
				Errors:  testStoreErrors,
			})
			if res.Failure != tc.want {
				t.Fatalf("got %v want %v", res.Failure, tc.want)
			}
			if tc.want == CreateFailureExists && tc.lookup == nil && prepared {
				t.Fatal("prepare must not run when the key is taken")
			}
		})
	}
}

func TestRunFindOrCreate(t *testing.T) {
	res := RunFindOrCreate(context.Background(), LinkDeps[string]{
		Find:   func(context.Context) (string, error) { return "existing", nil },
		Create: func(context.Context) (string, error) { t.Fatal("create must not run"); return "", nil },
		Errors: testStoreErrors,
	})
	if res.Outcome != LinkFound || res.Account != "existing" {
		t.Fatalf("found: got %+v", res)
	}

	res = RunFindOrCreate(context.Background(), LinkDeps[string]{
		Find:   func(context.Context) (string, error) { return "", errNotFound },
		Create: func(context.Context) (string, error) { return "fresh", nil },
		Errors: testStoreErrors,
	})
	if res.Outcome != LinkCreated || res.Account != "fresh" {
		t.Fatalf("created: got %+v", res)
	}
}

func TestRunFindOrCreateRecoversFromRace(t *testing.T) {
	finds := 0
	res := RunFindOrCreate(context.Background(), LinkDeps[string]{
		Find: func(context.Context) (string, error) {
			finds++
			if finds == 1 {
				return "", errNotFound
			}
			return "winner", nil
		},
		Create: func(context.Context) (string, error) { return "", errDuplicate },
		Errors: testStoreErrors,
	})
	if res.Err != nil || res.Outcome != LinkRaceRecovered || res.Account != "winner" {
		t.Fatalf("race: got %+v", res)
	}
	if finds != 2 {
		t.Fatalf("expected exactly one re-read, got %d finds", finds)
	}
}

func TestRunFindOrCreateStages(t *testing.T) {
	cases := []struct {
		name   string
		finds  []error
		create error
		stage  string
	}{
		{name: "lookup", finds: []error{errBackend}, stage: "lookup"},
		{name: "create", finds: []error{errNotFound}, create: errBackend, stage: "create"},
		{name: "reread", finds: []error{errNotFound, errBackend}, create: errDuplicate, stage: "reread"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			i := 0
			res := RunFindOrCreate(context.Background(), LinkDeps[string]{
				Find: func(context.Context) (string, error) {
					err := tc.finds[i]
					i++
					return "", err
				},
				Create: func(context.Context) (string, error) { return "", tc.create },
				Errors: testStoreErrors,
			})
			if !errors.Is(res.Err, errBackend) || res.Stage != tc.stage {
				t.Fatalf("got err=%v stage=%q want stage %q", res.Err, res.Stage, tc.stage)
			}
		})
	}
}
