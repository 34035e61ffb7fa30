package httpapi

import (
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"go.uber.org/zap"
)

const stateCookieName = "oauth_state"

func (s *Server) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     "/auth/github",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) handleGitHubStart(w http.ResponseWriter, r *http.Request) {
	state, cookie, err := s.opts.States.New()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, s.stateCookie(cookie, int(s.opts.States.TTL().Seconds())))
	http.Redirect(w, r, s.opts.GitHub.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := r.Cookie(stateCookieName)
	if err != nil {
		s.logger.Info("github callback without state cookie")
		s.writeError(w, r, goAccount.ErrIdentityRejected)
		return
	}
	http.SetCookie(w, s.stateCookie("", -1))

	if err := s.opts.States.Verify(c.Value, q.Get("state")); err != nil {
		s.logger.Warn("github callback state mismatch")
		s.writeError(w, r, goAccount.ErrIdentityRejected)
		return
	}
	if e := q.Get("error"); e != "" {
		s.logger.Info("github authorization denied", zap.String("error", e))
		s.writeError(w, r, goAccount.ErrIdentityRejected)
		return
	}

	ident, err := s.opts.GitHub.Identify(r.Context(), q.Get("code"))
	if err != nil {
		s.logger.Warn("github identify failed", zap.Error(err))
		s.writeError(w, r, goAccount.ErrIdentityRejected)
		return
	}

	res, err := s.engine.LoginWithIdentity(r.Context(), ident)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "GitHub authentication successful",
		"token":   res.Token,
		"user": map[string]string{
			"id":       res.User.ID,
			"name":     res.User.Name,
			"provider": res.User.Provider,
		},
	})
}
