package auth

import (
	"net/http"
	"regexp"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "sid"

var (
	cookieValueRe = regexp.MustCompile(`^[0-9A-Za-z,]+$`)
	sessionIDRe   = regexp.MustCompile(`^[0-9A-Za-z]+$`)
)

// ParseSessionCookie extracts the session id from a cookie value. Several
// comma separated ids are tolerated, only the first one is used.
func ParseSessionCookie(value string) (string, bool) {
	if !cookieValueRe.MatchString(value) {
		return "", false
	}
	sid, _, _ := strings.Cut(value, ",")
	if !sessionIDRe.MatchString(sid) {
		return "", false
	}
	return sid, true
}

// NewSessionCookie builds the cookie set after a successful login.
func NewSessionCookie(sid string, secure bool, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
