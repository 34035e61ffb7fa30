package middleware

import (
	"context"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
)

type userContextKey struct{}

type tokenContextKey struct{}

// UserFromContext returns the account resolved by [Guard].
func UserFromContext(ctx context.Context) (*goAccount.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*goAccount.User)
	return u, ok && u != nil
}

// TokenFromContext returns the bearer token accepted by [Guard].
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	return token, ok && token != ""
}

// Guard rejects requests without a valid, unrevoked token for an existing
// account.
func Guard(engine *goAccount.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, goAccount.ErrUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, goAccount.ErrTokenMissing)
				return
			}

			u, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, u)
			ctx = context.WithValue(ctx, tokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
