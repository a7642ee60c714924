package config

import (
	"strings"
	"time"
)

type AuthConfig interface {
	GetLoginTagLength() int
	GetSessionIDLength() int
	GetLoginRequestTTL() time.Duration
	GetSessionTTL() time.Duration
	GetFixedLoginCode() bool
	GetLoginCodeSalt() string
	GetAdminUsers() []string
	GetSweepInterval() time.Duration
}

type Auth struct {
	src *source
}

var _ AuthConfig = Auth{}

func (Auth) GetLoginTagLength() int {
	return 12
}

func (Auth) GetSessionIDLength() int {
	return 24
}

func (a Auth) GetLoginRequestTTL() time.Duration {
	return a.src.getDuration("LOGIN_REQUEST_TTL", 10*time.Minute)
}

func (a Auth) GetSessionTTL() time.Duration {
	return a.src.getDuration("SESSION_TTL", 365*24*time.Hour)
}

// GetFixedLoginCode reports whether one-time codes are replaced by the fixed
// test code. Defaults to on in the DEV environment only.
func (a Auth) GetFixedLoginCode() bool {
	return a.src.getBool("FIXED_LOGIN_CODE", EnvVars(a).IsDevelopment())
}

func (a Auth) GetLoginCodeSalt() string {
	return a.src.get("LOGIN_CODE_SALT", "")
}

// GetAdminUsers returns the lower-cased emails that must exist at startup.
func (a Auth) GetAdminUsers() []string {
	var admins []string
	for _, email := range a.src.getList("ADMIN_USERS") {
		admins = append(admins, strings.ToLower(email))
	}
	return admins
}

// GetSweepInterval is the period of the expiry sweeper. Zero disables it.
func (a Auth) GetSweepInterval() time.Duration {
	return a.src.getDuration("SWEEP_INTERVAL", time.Hour)
}
