package postgres

import (
	"context"
	"database/sql"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/users"
)

const (
	findUserQuery = `SELECT email, name, alias, affiliation, grade, want_mails,
       consent_real_name, will_show_up, photo_sha1, photo_mime_type
  FROM users
 WHERE email = $1`

	ensureUserQuery = `INSERT INTO users (email) VALUES ($1)
ON CONFLICT (email) DO NOTHING`

	upsertUserQuery = `INSERT INTO users (email, name, alias, affiliation, grade, want_mails,
                   consent_real_name, will_show_up, photo_sha1, photo_mime_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (email) DO UPDATE
   SET name = EXCLUDED.name,
       alias = EXCLUDED.alias,
       affiliation = EXCLUDED.affiliation,
       grade = EXCLUDED.grade,
       want_mails = EXCLUDED.want_mails,
       consent_real_name = EXCLUDED.consent_real_name,
       will_show_up = EXCLUDED.will_show_up,
       photo_sha1 = EXCLUDED.photo_sha1,
       photo_mime_type = EXCLUDED.photo_mime_type`
)

// userRow receives the nullable user columns.
type userRow struct {
	email, name, alias, affiliation, grade string
	wantMails                              sql.NullBool
	consentRealName                        bool
	willShowUp                             sql.NullString
	photoSHA1, photoMimeType               string
}

func (r *userRow) dest() []any {
	return []any{&r.email, &r.name, &r.alias, &r.affiliation, &r.grade, &r.wantMails,
		&r.consentRealName, &r.willShowUp, &r.photoSHA1, &r.photoMimeType}
}

func (r *userRow) user() *users.User {
	u := &users.User{
		Email:           r.email,
		Name:            r.name,
		Alias:           r.alias,
		Affiliation:     r.affiliation,
		Grade:           r.grade,
		ConsentRealName: r.consentRealName,
		PhotoSHA1:       r.photoSHA1,
		PhotoMimeType:   r.photoMimeType,
	}
	if r.wantMails.Valid {
		u.WantMails = &r.wantMails.Bool
	}
	if r.willShowUp.Valid {
		u.WillShowUp = &r.willShowUp.String
	}
	return u
}

func (s *Store) Find(ctx context.Context, email string) (*users.User, error) {
	var row userRow
	err := s.db.QueryRowContext(ctx, findUserQuery, email).Scan(row.dest()...)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
		}
		return nil, apperrors.Upstream(err, "find user")
	}
	return row.user(), nil
}

func (s *Store) Ensure(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, ensureUserQuery, email); err != nil {
		return apperrors.Upstream(err, "ensure user")
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, u *users.User) error {
	if u == nil || u.Email == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "user email is required")
	}
	var wantMails sql.NullBool
	if u.WantMails != nil {
		wantMails = sql.NullBool{Bool: *u.WantMails, Valid: true}
	}
	var willShowUp sql.NullString
	if u.WillShowUp != nil {
		willShowUp = sql.NullString{String: *u.WillShowUp, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, upsertUserQuery,
		u.Email, u.Name, u.Alias, u.Affiliation, u.Grade, wantMails,
		u.ConsentRealName, willShowUp, u.PhotoSHA1, u.PhotoMimeType)
	if err != nil {
		return apperrors.Upstream(err, "upsert user")
	}
	return nil
}
