package httpapi

import (
	"net/http"
	"reflect"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/MrEthical07/goAccount/oauth"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 1 << 20

// Options configures the optional parts of the HTTP surface. The zero value
// serves the account and admin routes only.
type Options struct {
	// GitHub and States enable the /auth/github routes; both are required
	// for them.
	GitHub oauth.Provider
	States *oauth.StateSigner

	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler

	Logger *zap.Logger

	// SecureCookies marks the OAuth state cookie Secure.
	SecureCookies bool
	// TrustForwardedFor takes the client address from the first
	// X-Forwarded-For hop. Only enable behind a proxy that sets it.
	TrustForwardedFor bool
	MaxBodyBytes      int64
}

// Server exposes an Engine over JSON. Errors are rendered by
// middleware.WriteError with the status its category maps to.
type Server struct {
	engine   *goAccount.Engine
	opts     Options
	validate *validator.Validate
	logger   *zap.Logger
}

// New returns a Server for engine. A nil Logger discards access logs and a
// non-positive MaxBodyBytes means 1 MiB.
func New(engine *goAccount.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		engine:   engine,
		opts:     opts,
		validate: v,
		logger:   opts.Logger.Named("http"),
	}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	guard := middleware.Guard(s.engine)
	admin := middleware.RequireRole(s.engine, goAccount.RoleAdmin)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/login/verifyOtp", s.handleVerifyOTP)
	mux.Handle("POST /auth/logout", guard(http.HandlerFunc(s.handleLogout)))

	mux.Handle("POST /auth/assign-role", admin(http.HandlerFunc(s.handleAssignRole)))
	mux.Handle("GET /users", admin(http.HandlerFunc(s.handleListUsers)))
	mux.Handle("DELETE /user/{id}", admin(http.HandlerFunc(s.handleDeleteUser)))

	mux.Handle("GET /profile", guard(http.HandlerFunc(s.handleGetProfile)))
	mux.Handle("PUT /profile", guard(http.HandlerFunc(s.handleUpdateProfile)))

	if s.opts.GitHub != nil && s.opts.States != nil {
		mux.HandleFunc("GET /auth/github", s.handleGitHubStart)
		mux.HandleFunc("GET /auth/github/callback", s.handleGitHubCallback)
		mux.Handle("GET /auth/github/signout", guard(http.HandlerFunc(s.handleLogout)))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}

	return s.accessLog(s.withClientIP(mux))
}
