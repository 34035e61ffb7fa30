package goAccount_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/store/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("test-secret-test-secret-test-sec")

type sentMessage struct {
	to, subject, body string
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *captureNotifier) Notify(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{to: to, subject: subject, body: body})
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (n *captureNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no message sent")
	}
	code := codePattern.FindString(n.sent[len(n.sent)-1].body)
	if code == "" {
		t.Fatalf("no code in message %q", n.sent[len(n.sent)-1].body)
	}
	return code
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	engine   *goAccount.Engine
	users    *memstore.Store
	notifier *captureNotifier
	clock    *fakeClock
	redis    *miniredis.Miniredis
}

func testConfig() goAccount.Config {
	cfg := goAccount.DefaultConfig()
	cfg.JWT.PrivateKey = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.BcryptCost = 10
	cfg.OTP.RequireForLogin = false
	return cfg
}

func newTestEnv(t *testing.T, mutate func(*goAccount.Config)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		users:    memstore.New(),
		notifier: &captureNotifier{},
		clock:    &fakeClock{now: time.Now()},
		redis:    mr,
	}
	env.engine, err = goAccount.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(env.users).
		WithNotifier(env.notifier).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return env
}

func (env *testEnv) register(t *testing.T, name, email, role string) *goAccount.AuthResult {
	t.Helper()
	res, err := env.engine.Register(context.Background(), goAccount.RegisterRequest{
		Name: name, Email: email, Password: "Secret1!", Role: role,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return res
}

// admin creates an Admin account through the bootstrap path and returns it
// as loaded by Authenticate.
func (env *testEnv) admin(t *testing.T) *goAccount.User {
	t.Helper()
	ctx := context.Background()
	if _, err := env.engine.EnsureAdmin(ctx, "Root", "root@example.com", "Secret1!"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	res, err := env.engine.Login(ctx, "root@example.com", "Secret1!")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	u, err := env.engine.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("admin authenticate failed: %v", err)
	}
	return u
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestBuildRequirements(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	if _, err := goAccount.New().WithConfig(testConfig()).WithUserStore(memstore.New()).Build(); err == nil {
		t.Fatal("expected missing redis to fail")
	}
	if _, err := goAccount.New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected missing user store to fail")
	}

	cfg := testConfig()
	cfg.OTP.RequireForLogin = true
	if _, err := goAccount.New().WithConfig(cfg).WithRedis(rdb).WithUserStore(memstore.New()).Build(); err == nil {
		t.Fatal("expected missing notifier with OTP step-up to fail")
	}

	b := goAccount.New().WithConfig(testConfig()).WithRedis(rdb).WithUserStore(memstore.New())
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *goAccount.Engine
	if _, err := e.Register(context.Background(), goAccount.RegisterRequest{}); !errors.Is(err, goAccount.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	snap := e.MetricsSnapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}
