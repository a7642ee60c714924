package postgres

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/sessions"
)

const (
	createLoginRequestQuery = `INSERT INTO login_requests (tag, code_hash, email, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)`

	// A single DELETE ... RETURNING makes the first committer the only winner.
	consumeLoginRequestQuery = `DELETE FROM login_requests
 WHERE tag = $1 AND code_hash = $2 AND expires_at > $3
RETURNING email`

	createSessionQuery = `INSERT INTO sessions (sid, email, created_at, expires_at)
VALUES ($1, $2, $3, $4)`

	findSessionQuery = `SELECT s.sid, s.email, s.created_at, s.expires_at,
       u.email, u.name, u.alias, u.affiliation, u.grade, u.want_mails,
       u.consent_real_name, u.will_show_up, u.photo_sha1, u.photo_mime_type
  FROM sessions s
  LEFT JOIN users u ON u.email = s.email
 WHERE s.sid = $1`

	deleteSessionQuery = `DELETE FROM sessions WHERE sid = $1`

	deleteExpiredSessionsQuery      = `DELETE FROM sessions WHERE expires_at IS NULL OR expires_at <= $1`
	deleteExpiredLoginRequestsQuery = `DELETE FROM login_requests WHERE expires_at <= $1`
)

func (s *Store) CreateLoginRequest(ctx context.Context, req *sessions.LoginRequest) error {
	_, err := s.db.ExecContext(ctx, createLoginRequestQuery,
		req.Tag, req.CodeHash, req.Email, req.CreatedAt, req.ExpiresAt)
	if err != nil {
		return dbError(err, "create login request")
	}
	return nil
}

func (s *Store) ConsumeLoginRequest(ctx context.Context, tag, codeHash string, now time.Time) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, consumeLoginRequestQuery, tag, codeHash, now).Scan(&email)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return "", apperrors.Wrapf(apperrors.ErrNotFound, "login request")
		}
		return "", apperrors.Upstream(err, "consume login request")
	}
	return email, nil
}

func (s *Store) CreateSession(ctx context.Context, session *sessions.Session) error {
	_, err := s.db.ExecContext(ctx, createSessionQuery,
		session.ID, session.Email, session.CreatedAt, nullTime(session.ExpiresAt))
	if err != nil {
		return dbError(err, "create session")
	}
	return nil
}

func (s *Store) FindSession(ctx context.Context, sid string) (*sessions.Session, error) {
	var (
		session   sessions.Session
		expiresAt sql.NullTime
		userEmail sql.NullString
		row       userRow
		// The joined user columns are all nullable because of the LEFT JOIN.
		name, alias, affiliation, grade, photoSHA1, photoMimeType sql.NullString
		consentRealName                                           sql.NullBool
	)
	err := s.db.QueryRowContext(ctx, findSessionQuery, sid).Scan(
		&session.ID, &session.Email, &session.CreatedAt, &expiresAt,
		&userEmail, &name, &alias, &affiliation, &grade, &row.wantMails,
		&consentRealName, &row.willShowUp, &photoSHA1, &photoMimeType)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "session")
		}
		return nil, apperrors.Upstream(err, "find session")
	}
	if !userEmail.Valid || !expiresAt.Valid {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptedState, "session %s", sid)
	}

	row.email = userEmail.String
	row.name = name.String
	row.alias = alias.String
	row.affiliation = affiliation.String
	row.grade = grade.String
	row.consentRealName = consentRealName.Bool
	row.photoSHA1 = photoSHA1.String
	row.photoMimeType = photoMimeType.String

	session.ExpiresAt = expiresAt.Time
	session.User = row.user()
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, sid string) error {
	if _, err := s.db.ExecContext(ctx, deleteSessionQuery, sid); err != nil {
		return apperrors.Upstream(err, "delete session")
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (sessions.SweepResult, error) {
	var res sessions.SweepResult

	sessionsRes, err := s.db.ExecContext(ctx, deleteExpiredSessionsQuery, now)
	if err != nil {
		return res, apperrors.Upstream(err, "delete expired sessions")
	}
	res.Sessions = rowsAffected(sessionsRes)

	requestsRes, err := s.db.ExecContext(ctx, deleteExpiredLoginRequestsQuery, now)
	if err != nil {
		return res, apperrors.Upstream(err, "delete expired login requests")
	}
	res.LoginRequests = rowsAffected(requestsRes)
	return res, nil
}
