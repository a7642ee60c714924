// Package inmemory is a process-local implementation of users.Repo and
// sessions.Repo, used in development and tests.
package inmemory

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/users"
)

var (
	_ users.Repo    = (*Store)(nil)
	_ sessions.Repo = (*Store)(nil)
)

// Store keeps users, login requests and sessions in maps guarded by one lock,
// which makes every multi-step operation atomic.
type Store struct {
	mu            sync.RWMutex
	users         map[string]users.User
	loginRequests map[string]sessions.LoginRequest // tag -> request
	sessions      map[string]sessions.Session      // sid -> session
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:         make(map[string]users.User),
		loginRequests: make(map[string]sessions.LoginRequest),
		sessions:      make(map[string]sessions.Session),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Migrate has nothing to do.
func (s *Store) Migrate(context.Context) error {
	return nil
}

// Close has nothing to release.
func (s *Store) Close() error {
	return nil
}

func (s *Store) Find(_ context.Context, email string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	return &user, nil
}

func (s *Store) Ensure(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; !ok {
		s.users[email] = users.User{Email: email}
	}
	return nil
}

func (s *Store) Upsert(_ context.Context, user *users.User) error {
	if user == nil || user.Email == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "user email is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.Email] = *user
	return nil
}

// DeleteUser removes a user but leaves its sessions behind, the way a
// foreign-key-free store could end up. Used to exercise self-healing.
func (s *Store) DeleteUser(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, email)
}

func (s *Store) CreateLoginRequest(_ context.Context, req *sessions.LoginRequest) error {
	if req == nil || req.Tag == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "login request tag is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.Email]; !ok {
		return apperrors.Wrapf(apperrors.ErrNotFound, "user %s", req.Email)
	}
	s.loginRequests[req.Tag] = *req
	return nil
}

func (s *Store) ConsumeLoginRequest(_ context.Context, tag, codeHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.loginRequests[tag]
	if !ok || req.CodeHash != codeHash {
		return "", apperrors.Wrapf(apperrors.ErrNotFound, "login request")
	}
	delete(s.loginRequests, tag)
	if !req.ExpiresAt.IsZero() && !req.ExpiresAt.After(now) {
		return "", apperrors.Wrapf(apperrors.ErrNotFound, "login request expired")
	}
	if _, ok := s.users[req.Email]; !ok {
		return "", apperrors.Wrapf(apperrors.ErrNotFound, "user %s", req.Email)
	}
	return req.Email, nil
}

func (s *Store) CreateSession(_ context.Context, session *sessions.Session) error {
	if session == nil || session.ID == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.Email]; !ok {
		return apperrors.Wrapf(apperrors.ErrNotFound, "user %s", session.Email)
	}
	stored := *session
	stored.User = nil
	s.sessions[session.ID] = stored
	return nil
}

func (s *Store) FindSession(_ context.Context, sid string) (*sessions.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sid]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "session")
	}
	user, ok := s.users[session.Email]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptedState, "session %s has no user", sid)
	}
	session.User = &user
	return &session, nil
}

func (s *Store) DeleteSession(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sid)
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (sessions.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res sessions.SweepResult
	for sid, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.sessions, sid)
			res.Sessions++
		}
	}
	for tag, req := range s.loginRequests {
		if !req.ExpiresAt.After(now) {
			delete(s.loginRequests, tag)
			res.LoginRequests++
		}
	}
	return res, nil
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// LoginRequestCount returns the number of pending login requests.
func (s *Store) LoginRequestCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.loginRequests)
}
