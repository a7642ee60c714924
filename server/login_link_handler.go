package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-marathon-server/auth"
	"github.com/rs/zerolog"
)

// LoginLinkHandler serves /l/<tag>/<code>. A matching pair logs the browser
// in; either way the visitor lands on the site root.
func (s *Server) LoginLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, loginLinkPrefix), "/")
		parts := strings.Split(link, "/")
		if len(parts) == 2 {
			email, sid, err := s.auth.ConsumeLogin(r.Context(), parts[0], parts[1])
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("login link rejected")
			} else {
				http.SetCookie(w, auth.NewSessionCookie(sid, !s.config.IsDevelopment(), s.auth.SessionTTL()))
				zerolog.Ctx(r.Context()).Info().Str("email", email).Msg("logged in")
			}
		}
		http.Redirect(w, r, s.config.GetWebRoot()+"/", http.StatusFound)
	}
}
