package inmemory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/storage/inmemory"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/stretchr/testify/require"
)

const testEmail = "runner@example.com"

func setupStore(t *testing.T) *inmemory.Store {
	t.Helper()
	s := inmemory.New()
	require.NoError(t, s.Upsert(context.Background(), &users.User{Email: testEmail, Name: "Runner"}))
	return s
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	u, err := s.Find(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, "Runner", u.Name)

	_, err = s.Find(ctx, "nobody@example.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.Ensure(ctx, testEmail))
	u, err = s.Find(ctx, testEmail)
	require.NoError(t, err)
	require.Equal(t, "Runner", u.Name, "Ensure must not overwrite an existing user")

	require.NoError(t, s.Ensure(ctx, "admin@example.com"))
	_, err = s.Find(ctx, "admin@example.com")
	require.NoError(t, err)

	require.ErrorIs(t, s.Upsert(ctx, &users.User{}), apperrors.ErrValidation)
}

func TestLoginRequestConsumedOnce(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	now := time.Now()

	err := s.CreateLoginRequest(ctx, &sessions.LoginRequest{Tag: "tag1", CodeHash: "h1", Email: testEmail, CreatedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	_, err = s.ConsumeLoginRequest(ctx, "tag1", "wrong", now)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Equal(t, 1, s.LoginRequestCount(), "a wrong code must not consume the request")

	email, err := s.ConsumeLoginRequest(ctx, "tag1", "h1", now)
	require.NoError(t, err)
	require.Equal(t, testEmail, email)

	_, err = s.ConsumeLoginRequest(ctx, "tag1", "h1", now)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoginRequestUnknownUser(t *testing.T) {
	s := setupStore(t)
	err := s.CreateLoginRequest(context.Background(), &sessions.LoginRequest{Tag: "t", CodeHash: "h", Email: "nobody@example.com"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoginRequestExpired(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	now := time.Now()

	require.NoError(t, s.CreateLoginRequest(ctx, &sessions.LoginRequest{Tag: "t", CodeHash: "h", Email: testEmail, ExpiresAt: now}))
	_, err := s.ConsumeLoginRequest(ctx, "t", "h", now)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Equal(t, 0, s.LoginRequestCount())
}

func TestConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	now := time.Now()
	require.NoError(t, s.CreateLoginRequest(ctx, &sessions.LoginRequest{Tag: "t", CodeHash: "h", Email: testEmail, ExpiresAt: now.Add(time.Minute)}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ConsumeLoginRequest(ctx, "t", "h", now); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	exp := time.Now().Add(time.Hour)

	require.NoError(t, s.CreateSession(ctx, &sessions.Session{ID: "sid1", Email: testEmail, ExpiresAt: exp}))
	require.ErrorIs(t, s.CreateSession(ctx, &sessions.Session{ID: "sid2", Email: "nobody@example.com"}), apperrors.ErrNotFound)

	session, err := s.FindSession(ctx, "sid1")
	require.NoError(t, err)
	require.Equal(t, testEmail, session.User.Email)
	require.True(t, session.ExpiresAt.Equal(exp))

	require.NoError(t, s.DeleteSession(ctx, "sid1"))
	require.NoError(t, s.DeleteSession(ctx, "sid1"))
	_, err = s.FindSession(ctx, "sid1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindSessionOrphaned(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	require.NoError(t, s.CreateSession(ctx, &sessions.Session{ID: "sid1", Email: testEmail, ExpiresAt: time.Now().Add(time.Hour)}))
	s.DeleteUser(testEmail)

	_, err := s.FindSession(ctx, "sid1")
	require.ErrorIs(t, err, apperrors.ErrCorruptedState)
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	now := time.Now()

	require.NoError(t, s.CreateSession(ctx, &sessions.Session{ID: "old", Email: testEmail, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, s.CreateSession(ctx, &sessions.Session{ID: "new", Email: testEmail, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, s.CreateLoginRequest(ctx, &sessions.LoginRequest{Tag: "old", CodeHash: "h", Email: testEmail, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, s.CreateLoginRequest(ctx, &sessions.LoginRequest{Tag: "new", CodeHash: "h", Email: testEmail, ExpiresAt: now.Add(time.Minute)}))

	res, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, sessions.SweepResult{Sessions: 1, LoginRequests: 1}, res)
	require.Equal(t, 1, s.SessionCount())
	require.Equal(t, 1, s.LoginRequestCount())
}
