package auth

import (
	"context"
	"encoding/hex"
	"time"

	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
	"github.com/jrsteele09/go-marathon-server/mail"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/tokens"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

const (
	defaultTagLength       = 12
	defaultSessionIDLength = 24
	defaultLoginRequestTTL = 10 * time.Minute
	defaultSessionTTL      = 365 * 24 * time.Hour
)

// Repos holds the persistence dependencies of the Service
type Repos struct {
	Users    users.Repo
	Sessions sessions.Repo
}

// Settings tunes the login flow. Zero values fall back to the defaults.
type Settings struct {
	SiteName        string
	WebRoot         string
	MailFrom        string
	TagLength       int
	SessionIDLength int
	LoginRequestTTL time.Duration
	SessionTTL      time.Duration
	CodeSalt        string
}

// Service drives the passwordless login: request a code by email, exchange
// tag and code for a session, resolve and end sessions.
type Service struct {
	repos    Repos
	mailer   mail.Sender
	codes    *tokens.CodeGenerator
	settings Settings
	hashKey  [blake2b.Size256]byte
	nowTime  func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a Service with its required dependencies.
func NewService(repos Repos, mailer mail.Sender, codes *tokens.CodeGenerator, settings Settings, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if mailer == nil {
		return nil, errors.New("[NewService] mailer is required")
	}
	if codes == nil {
		return nil, errors.New("[NewService] code generator is required")
	}

	if settings.TagLength <= 0 {
		settings.TagLength = defaultTagLength
	}
	if settings.SessionIDLength <= 0 {
		settings.SessionIDLength = defaultSessionIDLength
	}
	if settings.LoginRequestTTL <= 0 {
		settings.LoginRequestTTL = defaultLoginRequestTTL
	}
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = defaultSessionTTL
	}

	s := &Service{
		repos:    repos,
		mailer:   mailer,
		codes:    codes,
		settings: settings,
		hashKey:  blake2b.Sum256([]byte(settings.CodeSalt)),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// SessionTTL is the lifetime of sessions created by ConsumeLogin.
func (s *Service) SessionTTL() time.Duration {
	return s.settings.SessionTTL
}

// RequestLogin starts a login for an existing user. It stores a login request
// and mails the one-time code. The returned tag is public; the code never
// leaves the mail. Delivery failures are logged and do not fail the request.
func (s *Service) RequestLogin(ctx context.Context, email string) (string, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return "", InvalidEmailErr
	}

	if _, err := s.repos.Users.Find(ctx, email); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", errors.Wrapf(UserNotFoundErr, "[Service.RequestLogin] %s", email)
		}
		return "", errors.Wrap(err, "[Service.RequestLogin] Users.Find")
	}

	tag, err := tokens.GenerateToken(s.settings.TagLength)
	if err != nil {
		return "", errors.Wrap(err, "[Service.RequestLogin] generating tag")
	}
	code, err := s.codes.Generate()
	if err != nil {
		return "", errors.Wrap(err, "[Service.RequestLogin] generating code")
	}

	now := s.nowTime()
	if err := s.repos.Sessions.CreateLoginRequest(ctx, &sessions.LoginRequest{
		Tag:       tag,
		CodeHash:  s.hashCode(tag, code),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.settings.LoginRequestTTL),
	}); err != nil {
		return "", errors.Wrap(err, "[Service.RequestLogin] Sessions.CreateLoginRequest")
	}

	msg, err := s.loginEmail(email, code)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Err(err).Str("email", email).Msg("sending login code failed")
	}
	return tag, nil
}

// ConsumeLogin exchanges a tag and code for a new session. The login request
// is deleted on success, so a second call with the same pair fails.
func (s *Service) ConsumeLogin(ctx context.Context, tag, code string) (email string, sid string, err error) {
	if !tokens.IsToken(tag) || !tokens.IsToken(code) {
		return "", "", InvalidLoginTokenErr
	}

	now := s.nowTime()
	email, err = s.repos.Sessions.ConsumeLoginRequest(ctx, tag, s.hashCode(tag, code), now)
	if err != nil {
		return "", "", errors.Wrap(err, "[Service.ConsumeLogin] Sessions.ConsumeLoginRequest")
	}

	sid, err = tokens.GenerateToken(s.settings.SessionIDLength)
	if err != nil {
		return "", "", errors.Wrap(err, "[Service.ConsumeLogin] generating session id")
	}
	if err := s.repos.Sessions.CreateSession(ctx, &sessions.Session{
		ID:        sid,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.settings.SessionTTL),
	}); err != nil {
		return "", "", errors.Wrap(err, "[Service.ConsumeLogin] Sessions.CreateSession")
	}
	return email, sid, nil
}

// Logout deletes the session named by the cookie value. Malformed values and
// unknown sessions are ignored.
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	sid, ok := ParseSessionCookie(cookieValue)
	if !ok {
		return nil
	}
	if err := s.repos.Sessions.DeleteSession(ctx, sid); err != nil {
		return errors.Wrap(err, "[Service.Logout] Sessions.DeleteSession")
	}
	return nil
}

func (s *Service) hashCode(tag, code string) string {
	h, _ := blake2b.New256(s.hashKey[:])
	h.Write([]byte(tag))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}
