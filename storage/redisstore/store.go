// Package redisstore keeps users, login requests and sessions in Redis
// hashes. Login requests and sessions carry a Redis expiry, so Redis itself
// removes them once they run out.
package redisstore

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "marathon"

var (
	_ users.Repo    = (*Store)(nil)
	_ sessions.Repo = (*Store)(nil)
)

// createLinkedLua writes a hash only if its owning user exists.
// KEYS[1] = user key
// KEYS[2] = hash key
// ARGV[1] = absolute expiry in unix milliseconds, 0 for none
// ARGV[2..] = field/value pairs
var createLinkedLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return redis.error_reply('no_user')
end
redis.call('DEL', KEYS[2])
for i = 2, #ARGV, 2 do
  redis.call('HSET', KEYS[2], ARGV[i], ARGV[i + 1])
end
local expireAt = tonumber(ARGV[1])
if expireAt > 0 then
  redis.call('PEXPIREAT', KEYS[2], expireAt)
end
return 1
`)

// consumeLoginLua atomically matches and deletes a login request.
// KEYS[1] = login request key
// ARGV[1] = code hash
// ARGV[2] = current unix milliseconds
//
// Returns the email on success and nil otherwise. A wrong code leaves the
// request in place; an expired one is deleted.
var consumeLoginLua = redis.NewScript(`
local stored = redis.call('HGET', KEYS[1], 'code_hash')
if not stored or stored ~= ARGV[1] then
  return false
end
local email = redis.call('HGET', KEYS[1], 'email')
local expiresAt = tonumber(redis.call('HGET', KEYS[1], 'expires_at_ms'))
redis.call('DEL', KEYS[1])
if expiresAt and expiresAt <= tonumber(ARGV[2]) then
  return false
end
return email
`)

type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// Open connects to the Redis server described by url, e.g.
// redis://localhost:6379/0.
func Open(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "[redisstore.Open] redis.ParseURL")
	}
	return New(redis.NewClient(opts), defaultPrefix), nil
}

func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return apperrors.Upstream(err, "ping redis")
	}
	return nil
}

// Migrate has nothing to do; hashes need no schema.
func (s *Store) Migrate(context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return s.redis.Close()
}

func (s *Store) userKey(email string) string {
	return s.prefix + ":user:" + email
}

func (s *Store) loginKey(tag string) string {
	return s.prefix + ":login:" + tag
}

func (s *Store) sessionKey(sid string) string {
	return s.prefix + ":session:" + sid
}

func (s *Store) createLinked(ctx context.Context, email, key string, expiresAt time.Time, fields ...string) error {
	var expireMs int64
	if !expiresAt.IsZero() {
		expireMs = expiresAt.UnixMilli()
	}
	args := make([]any, 0, len(fields)+1)
	args = append(args, strconv.FormatInt(expireMs, 10))
	for _, f := range fields {
		args = append(args, f)
	}
	err := createLinkedLua.Run(ctx, s.redis, []string{s.userKey(email), key}, args...).Err()
	if err != nil {
		if strings.Contains(err.Error(), "no_user") {
			return apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
		}
		return apperrors.Upstream(err, "write %s", key)
	}
	return nil
}
