package render

import (
	"html"

	"github.com/jrsteele09/go-marathon-server/auth"
)

// Env is everything a page expression can see. Expressions cannot reach
// anything that is not listed here.
type Env struct {
	User        *auth.SessionUser `expr:"user"`
	LoggedIn    bool              `expr:"logged_in"`
	Path        string            `expr:"path"`
	WebRoot     string            `expr:"web_root"`
	WebsiteHost string            `expr:"website_host"`
	Development bool              `expr:"development"`

	H func(string) string `expr:"h"`
}

// NewEnv builds the environment for one request. user is nil for anonymous
// visitors.
func NewEnv(user *auth.SessionUser, path, webRoot, websiteHost string, development bool) Env {
	return Env{
		User:        user,
		LoggedIn:    user != nil,
		Path:        path,
		WebRoot:     webRoot,
		WebsiteHost: websiteHost,
		Development: development,
		H:           html.EscapeString,
	}
}
