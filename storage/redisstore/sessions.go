package redisstore

import (
	"context"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/redis/go-redis/v9"
)

func (s *Store) CreateLoginRequest(ctx context.Context, req *sessions.LoginRequest) error {
	return s.createLinked(ctx, req.Email, s.loginKey(req.Tag), req.ExpiresAt,
		"email", req.Email,
		"code_hash", req.CodeHash,
		"created_at", req.CreatedAt.Format(time.RFC3339Nano),
		"expires_at_ms", strconv.FormatInt(req.ExpiresAt.UnixMilli(), 10),
	)
}

func (s *Store) ConsumeLoginRequest(ctx context.Context, tag, codeHash string, now time.Time) (string, error) {
	email, err := consumeLoginLua.Run(ctx, s.redis, []string{s.loginKey(tag)}, codeHash, now.UnixMilli()).Text()
	if err != nil {
		if apperrors.Is(err, redis.Nil) {
			return "", apperrors.Wrapf(apperrors.ErrNotFound, "login request")
		}
		return "", apperrors.Upstream(err, "consume login request")
	}
	return email, nil
}

func (s *Store) CreateSession(ctx context.Context, session *sessions.Session) error {
	return s.createLinked(ctx, session.Email, s.sessionKey(session.ID), session.ExpiresAt,
		"email", session.Email,
		"created_at", session.CreatedAt.Format(time.RFC3339Nano),
		"expires_at", session.ExpiresAt.Format(time.RFC3339Nano),
	)
}

func (s *Store) FindSession(ctx context.Context, sid string) (*sessions.Session, error) {
	fields, err := s.redis.HGetAll(ctx, s.sessionKey(sid)).Result()
	if err != nil {
		return nil, apperrors.Upstream(err, "find session")
	}
	if len(fields) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "session")
	}

	email := fields["email"]
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if email == "" || err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptedState, "session %s", sid)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])

	user, err := s.Find(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(apperrors.ErrCorruptedState, "session %s has no user", sid)
		}
		return nil, err
	}
	return &sessions.Session{
		ID:        sid,
		Email:     email,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (s *Store) DeleteSession(ctx context.Context, sid string) error {
	if err := s.redis.Del(ctx, s.sessionKey(sid)).Err(); err != nil {
		return apperrors.Upstream(err, "delete session")
	}
	return nil
}

// DeleteExpired reports nothing: Redis expires the keys on its own.
func (s *Store) DeleteExpired(context.Context, time.Time) (sessions.SweepResult, error) {
	return sessions.SweepResult{}, nil
}
