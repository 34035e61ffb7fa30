package middleware

import (
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
)

// RequireRole is [Guard] plus an exact role check. Admin does not pass a User
// requirement.
func RequireRole(engine *goAccount.Engine, role goAccount.Role) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		check := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _ := UserFromContext(r.Context())
			if err := engine.RequireRole(u, role); err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
		return guard(check)
	}
}
