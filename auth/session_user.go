package auth

import (
	"context"

	"github.com/jrsteele09/go-marathon-server/internal/utils"
	"github.com/jrsteele09/go-marathon-server/users"
)

const defaultWillShowUp = "no"

// SessionUser is the read-only snapshot of the logged in user attached to a
// request. The expr tags are the names page expressions use.
type SessionUser struct {
	Email           string `expr:"email" json:"email"`
	Name            string `expr:"name" json:"name"`
	Alias           string `expr:"alias" json:"alias"`
	Affiliation     string `expr:"affiliation" json:"affiliation"`
	Grade           string `expr:"grade" json:"grade"`
	WantMails       bool   `expr:"want_mails" json:"want_mails"`
	ConsentRealName bool   `expr:"consent_real_name" json:"consent_real_name"`
	WillShowUp      string `expr:"will_show_up" json:"will_show_up"`
	PhotoSHA1       string `expr:"photo_sha1" json:"photo_sha1"`
	PhotoMimeType   string `expr:"photo_mime_type" json:"photo_mime_type"`
}

func newSessionUser(u *users.User) *SessionUser {
	willShowUp := utils.Value(u.WillShowUp)
	if u.WillShowUp == nil {
		willShowUp = defaultWillShowUp
	}
	wantMails := true
	if u.WantMails != nil {
		wantMails = *u.WantMails
	}
	return &SessionUser{
		Email:           users.NormalizeEmail(u.Email),
		Name:            u.Name,
		Alias:           u.Alias,
		Affiliation:     u.Affiliation,
		Grade:           u.Grade,
		WantMails:       wantMails,
		ConsentRealName: u.ConsentRealName,
		WillShowUp:      willShowUp,
		PhotoSHA1:       u.PhotoSHA1,
		PhotoMimeType:   u.PhotoMimeType,
	}
}

type sessionUserKey struct{}

// WithSessionUser returns a copy of ctx carrying user.
func WithSessionUser(ctx context.Context, user *SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey{}, user)
}

// SessionUserFrom returns the user attached by the session guard, or nil for
// anonymous requests.
func SessionUserFrom(ctx context.Context) *SessionUser {
	user, _ := ctx.Value(sessionUserKey{}).(*SessionUser)
	return user
}
