package server

import (
	"net/http"

	"github.com/jrsteele09/go-marathon-server/auth"
	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/rs/zerolog"
)

type requestLoginRequest struct {
	Email string `json:"email"`
}

type requestLoginResponse struct {
	OK  string `json:"ok"`
	Tag string `json:"tag"`
}

// RequestLoginHandler starts a login and answers with the public tag. The
// one-time code only travels by email.
func (s *Server) RequestLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		var req requestLoginRequest
		if err := s.decodeRequest(r, &req, "email"); err != nil {
			logger.Debug().Err(err).Msg("rejected login request")
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		tag, err := s.auth.RequestLogin(r.Context(), req.Email)
		if err != nil {
			logger.Err(err).Msg("request login")
			if apperrors.Is(err, apperrors.ErrValidation) {
				writeError(w, http.StatusBadRequest, "invalid request")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, requestLoginResponse{OK: "yay", Tag: tag})
	}
}

// LogoutHandler ends the current session. It always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
			if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
				zerolog.Ctx(r.Context()).Err(err).Msg("logout")
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yeah"})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil {
			if err := s.health.Ping(r.Context()); err != nil {
				zerolog.Ctx(r.Context()).Err(err).Msg("health check")
				writeError(w, http.StatusServiceUnavailable, "store unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	}
}
