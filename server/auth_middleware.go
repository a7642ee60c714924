package server

import (
	"net/http"

	"github.com/jrsteele09/go-marathon-server/auth"
	"github.com/rs/zerolog"
)

// SessionMiddleware resolves the sid cookie once per request and attaches the
// logged in user, if any, to the request context. A request whose session
// cannot be resolved is handled as anonymous, so logout and login links keep
// working while the store misbehaves.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.auth.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			zerolog.Ctx(r.Context()).Err(err).Msg("resolving session")
			next.ServeHTTP(w, r)
			return
		}
		if user != nil {
			r = r.WithContext(auth.WithSessionUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}
