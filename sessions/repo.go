package sessions

import (
	"context"
	"time"
)

// Repo is the session side of the persistence collaborator.
//
// Implementations must make ConsumeLoginRequest atomic: of two concurrent
// calls with the same tag and code hash exactly one returns the email and the
// other an error wrapping errors.ErrNotFound.
type Repo interface {
	// CreateLoginRequest stores a login request linked to an existing user.
	CreateLoginRequest(ctx context.Context, req *LoginRequest) error

	// ConsumeLoginRequest deletes the request matching both tag and codeHash
	// and returns its email. Requests expired at now do not match.
	ConsumeLoginRequest(ctx context.Context, tag, codeHash string, now time.Time) (string, error)

	// CreateSession stores a session linked to an existing user.
	CreateSession(ctx context.Context, session *Session) error

	// FindSession returns the session joined with its user. A record that
	// exists but cannot be decoded yields errors.ErrCorruptedState.
	FindSession(ctx context.Context, sid string) (*Session, error)

	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, sid string) error

	// DeleteExpired removes sessions and login requests that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (SweepResult, error)
}
