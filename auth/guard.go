package auth

import (
	"context"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ResolveSession maps a session cookie value to the logged in user. It
// returns nil without error for anonymous requests: missing or malformed
// cookies, unknown or expired sessions. Sessions whose record is corrupted or
// whose user has vanished are deleted on the way. Only store failures are
// returned as errors.
func (s *Service) ResolveSession(ctx context.Context, cookieValue string) (*SessionUser, error) {
	sid, ok := ParseSessionCookie(cookieValue)
	if !ok {
		return nil, nil
	}

	session, err := s.repos.Sessions.FindSession(ctx, sid)
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return nil, nil
	case apperrors.Is(err, apperrors.ErrCorruptedState):
		s.discard(ctx, sid, err)
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "[Service.ResolveSession] Sessions.FindSession")
	}

	if session.User == nil || session.ExpiresAt.IsZero() {
		s.discard(ctx, sid, apperrors.ErrCorruptedState)
		return nil, nil
	}
	if !session.Valid(s.nowTime()) {
		return nil, nil
	}
	return newSessionUser(session.User), nil
}

func (s *Service) discard(ctx context.Context, sid string, cause error) {
	log.Warn().AnErr("cause", cause).Msg("deleting unusable session")
	if err := s.repos.Sessions.DeleteSession(ctx, sid); err != nil {
		log.Err(err).Msg("deleting unusable session failed")
	}
}
