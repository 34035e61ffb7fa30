package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/MrEthical07/goAccount/store/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *goAccount.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := goAccount.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("middleware-secret-middleware-sec")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.OTP.RequireForLogin = false

	engine, err := goAccount.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(memstore.New()).
		Build()
	require.NoError(t, err)
	return engine
}

func register(t *testing.T, engine *goAccount.Engine, email, role string) *goAccount.AuthResult {
	t.Helper()
	res, err := engine.Register(context.Background(), goAccount.RegisterRequest{
		Name: "Test", Email: email, Password: "Secret1!", Role: role,
	})
	require.NoError(t, err)
	return res
}

func whoami(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(u.Email))
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorBody {
	t.Helper()
	var body middleware.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestGuardAcceptsValidToken(t *testing.T) {
	engine := newEngine(t)
	res := register(t, engine, "ann@x.io", "User")

	rec := serve(middleware.Guard(engine)(http.HandlerFunc(whoami)), "Bearer "+res.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann@x.io", rec.Body.String())
}

func TestGuardRejectionsLookAlike(t *testing.T) {
	engine := newEngine(t)
	res := register(t, engine, "ann@x.io", "User")
	revoked := register(t, engine, "bob@x.io", "User")
	require.NoError(t, engine.Revoke(context.Background(), revoked.Token))

	h := middleware.Guard(engine)(http.HandlerFunc(whoami))
	cases := map[string]string{
		"missing":   "",
		"basic":     "Basic abc",
		"empty":     "Bearer ",
		"lowercase": "bearer " + res.Token,
		"garbage":   "Bearer not.a.token",
		"revoked":   "Bearer " + revoked.Token,
	}
	for name, header := range cases {
		rec := serve(h, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		body := decodeError(t, rec)
		assert.Equal(t, goAccount.CategoryAuthentication, body.Category, name)
		assert.Equal(t, "unauthorized", body.Error, name)
	}
}

func TestGuardRejectsDeletedUser(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()
	res := register(t, engine, "ann@x.io", "User")

	admin, err := engine.EnsureAdmin(ctx, "Root", "root@x.io", "Secret1!")
	require.NoError(t, err)
	require.NoError(t, engine.DeleteUser(ctx, admin, res.User.ID))

	rec := serve(middleware.Guard(engine)(http.HandlerFunc(whoami)), "Bearer "+res.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()
	user := register(t, engine, "ann@x.io", "User")

	_, err := engine.EnsureAdmin(ctx, "Root", "root@x.io", "Secret1!")
	require.NoError(t, err)
	login, err := engine.Login(ctx, "root@x.io", "Secret1!")
	require.NoError(t, err)

	adminOnly := middleware.RequireRole(engine, goAccount.RoleAdmin)(http.HandlerFunc(whoami))
	userOnly := middleware.RequireRole(engine, goAccount.RoleUser)(http.HandlerFunc(whoami))

	assert.Equal(t, http.StatusOK, serve(adminOnly, "Bearer "+login.Token).Code)

	rec := serve(adminOnly, "Bearer "+user.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, goAccount.CategoryAuthorization, decodeError(t, rec).Category)

	// Exact match: Admin does not satisfy a User requirement.
	assert.Equal(t, http.StatusForbidden, serve(userOnly, "Bearer "+login.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(userOnly, "").Code)
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{goAccount.ErrWeakPassword, http.StatusBadRequest, goAccount.ErrWeakPassword.Message},
		{goAccount.ErrEmailExists, http.StatusConflict, "email already registered"},
		{goAccount.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{goAccount.ErrTokenRevoked, http.StatusUnauthorized, "unauthorized"},
		{goAccount.ErrForbidden, http.StatusForbidden, "access denied"},
		{goAccount.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{goAccount.ErrRateLimited, http.StatusTooManyRequests, goAccount.ErrRateLimited.Message},
		{assert.AnError, http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		middleware.WriteError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, tc.msg, decodeError(t, rec).Error)
	}
}
