package goAccount_test

import (
	"context"
	"testing"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
)

func TestRevokeBlacklistsToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res := env.register(t, "Ann", "ann@x.io", "User")
	again, err := env.engine.Login(ctx, "ann@x.io", "Secret1!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := env.engine.Revoke(ctx, res.Token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if err := env.engine.Revoke(ctx, res.Token); err != nil {
		t.Fatalf("second Revoke must succeed: %v", err)
	}

	_, err = env.engine.ValidateToken(ctx, res.Token)
	expectErr(t, err, goAccount.ErrTokenRevoked)
	_, err = env.engine.Authenticate(ctx, res.Token)
	expectErr(t, err, goAccount.ErrTokenRevoked)

	// Only the revoked token is affected.
	uid, err := env.engine.ValidateToken(ctx, again.Token)
	if err != nil || uid != res.User.ID {
		t.Fatalf("sibling token rejected: uid=%q err=%v", uid, err)
	}
}

func TestRevocationKeyedByDigest(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res := env.register(t, "Ann", "ann@x.io", "User")
	if err := env.engine.Revoke(ctx, res.Token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	keys := env.redis.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one blacklist key, got %v", keys)
	}
	ttl := env.redis.TTL(keys[0])
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("blacklist entry TTL %v not bounded by token lifetime", ttl)
	}
	if env.redis.Exists(res.Token) {
		t.Fatal("raw token must not be used as a key")
	}
}

func TestValidateTokenRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.engine.ValidateToken(ctx, "")
	expectErr(t, err, goAccount.ErrTokenMissing)
	_, err = env.engine.ValidateToken(ctx, "not.a.token")
	expectErr(t, err, goAccount.ErrTokenInvalid)
	expectErr(t, env.engine.Revoke(ctx, "garbage"), goAccount.ErrTokenInvalid)
	expectErr(t, env.engine.Revoke(ctx, ""), goAccount.ErrTokenMissing)
}

func TestTokenExpires(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res := env.register(t, "Ann", "ann@x.io", "User")
	if !res.ExpiresAt.Equal(env.clock.Now().Add(time.Hour).Truncate(time.Second)) {
		t.Fatalf("unexpected expiry %v", res.ExpiresAt)
	}

	env.clock.Advance(time.Hour + time.Second)
	_, err := env.engine.ValidateToken(ctx, res.Token)
	expectErr(t, err, goAccount.ErrTokenInvalid)
}

func TestTokenFromOtherKeyRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	other := newTestEnv(t, func(cfg *goAccount.Config) {
		cfg.JWT.PrivateKey = []byte("another-secret-another-secret-32")
	})
	res := other.register(t, "Ann", "ann@x.io", "User")

	_, err := env.engine.ValidateToken(context.Background(), res.Token)
	expectErr(t, err, goAccount.ErrTokenInvalid)
}

func TestRevocationOutlivesLeeway(t *testing.T) {
	env := newTestEnv(t, func(cfg *goAccount.Config) {
		cfg.JWT.Leeway = time.Minute
	})
	ctx := context.Background()

	res := env.register(t, "Ann", "ann@x.io", "User")
	if err := env.engine.Revoke(ctx, res.Token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	keys := env.redis.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one blacklist key, got %v", keys)
	}
	if ttl := env.redis.TTL(keys[0]); ttl <= time.Hour {
		t.Fatalf("blacklist TTL %v does not cover the leeway", ttl)
	}

	// Past exp but inside the leeway the parser still accepts the token.
	env.clock.Advance(time.Hour + 10*time.Second)
	env.redis.FastForward(time.Hour + 10*time.Second)

	_, err := env.engine.ValidateToken(ctx, res.Token)
	expectErr(t, err, goAccount.ErrTokenRevoked)
}

func TestRevocationUsesEngineClock(t *testing.T) {
	env := newTestEnv(t, nil)
	env.clock.Advance(-2 * time.Hour)
	ctx := context.Background()

	res := env.register(t, "Ann", "ann@x.io", "User")
	if err := env.engine.Revoke(ctx, res.Token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if len(env.redis.Keys()) != 1 {
		t.Fatalf("revocation skipped under engine clock, keys %v", env.redis.Keys())
	}

	_, err := env.engine.ValidateToken(ctx, res.Token)
	expectErr(t, err, goAccount.ErrTokenRevoked)
}
