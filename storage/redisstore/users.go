package redisstore

import (
	"context"
	"strconv"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/redis/go-redis/v9"
)

func (s *Store) Find(ctx context.Context, email string) (*users.User, error) {
	fields, err := s.redis.HGetAll(ctx, s.userKey(email)).Result()
	if err != nil {
		return nil, apperrors.Upstream(err, "find user")
	}
	if len(fields) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	return decodeUser(email, fields), nil
}

func (s *Store) Ensure(ctx context.Context, email string) error {
	if err := s.redis.HSetNX(ctx, s.userKey(email), "email", email).Err(); err != nil {
		return apperrors.Upstream(err, "ensure user")
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, u *users.User) error {
	if u == nil || u.Email == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "user email is required")
	}
	key := s.userKey(u.Email)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, encodeUser(u))
		return nil
	})
	if err != nil {
		return apperrors.Upstream(err, "upsert user")
	}
	return nil
}

func encodeUser(u *users.User) map[string]any {
	fields := map[string]any{
		"email":             u.Email,
		"name":              u.Name,
		"alias":             u.Alias,
		"affiliation":       u.Affiliation,
		"grade":             u.Grade,
		"consent_real_name": strconv.FormatBool(u.ConsentRealName),
		"photo_sha1":        u.PhotoSHA1,
		"photo_mime_type":   u.PhotoMimeType,
	}
	if u.WantMails != nil {
		fields["want_mails"] = strconv.FormatBool(*u.WantMails)
	}
	if u.WillShowUp != nil {
		fields["will_show_up"] = *u.WillShowUp
	}
	return fields
}

func decodeUser(email string, fields map[string]string) *users.User {
	u := &users.User{
		Email:         email,
		Name:          fields["name"],
		Alias:         fields["alias"],
		Affiliation:   fields["affiliation"],
		Grade:         fields["grade"],
		PhotoSHA1:     fields["photo_sha1"],
		PhotoMimeType: fields["photo_mime_type"],
	}
	u.ConsentRealName, _ = strconv.ParseBool(fields["consent_real_name"])
	if v, ok := fields["want_mails"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			u.WantMails = &b
		}
	}
	if v, ok := fields["will_show_up"]; ok {
		u.WillShowUp = &v
	}
	return u
}
