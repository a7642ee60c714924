package sessions

import (
	"time"

	"github.com/jrsteele09/go-marathon-server/users"
)

// LoginRequest is a pending login attempt. The tag is public, the code only
// travels by email and is persisted as CodeHash.
type LoginRequest struct {
	Tag       string
	CodeHash  string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Session is an authenticated browser.
type Session struct {
	ID        string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time

	// User is the joined owner, filled in by Repo.FindSession.
	User *users.User
}

// Valid reports whether the session is usable at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// SweepResult counts the rows removed by Repo.DeleteExpired.
type SweepResult struct {
	Sessions      int64
	LoginRequests int64
}
