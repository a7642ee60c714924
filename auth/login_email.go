package auth

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/jrsteele09/go-marathon-server/mail"
	"github.com/pkg/errors"
)

var loginEmailTemplate = template.Must(template.New("login_email").Parse(
	`<p>Hello!</p>
<p>Your login code is:</p>
<p style='font-size: 200%;'>{{.Code}}</p>
<p>The code is valid for {{.ValidMinutes}} minutes. Once you have logged in you stay logged in for {{.SessionDays}} days (unless you log out).</p>
<p>If you did not request this email, somebody tried to log in with your email address at <a href='{{.WebRoot}}/'>{{.WebRoot}}/</a>. You do not need to do anything, unless you fear that somebody else has access to your email account, in which case you should change your email password.</p>
`))

type loginEmailData struct {
	Code         string
	ValidMinutes int
	SessionDays  int
	WebRoot      string
}

func (s *Service) loginEmail(to, code string) (mail.Message, error) {
	var body bytes.Buffer
	err := loginEmailTemplate.Execute(&body, loginEmailData{
		Code:         code,
		ValidMinutes: int(s.settings.LoginRequestTTL / time.Minute),
		SessionDays:  int(s.settings.SessionTTL / (24 * time.Hour)),
		WebRoot:      s.settings.WebRoot,
	})
	if err != nil {
		return mail.Message{}, errors.Wrap(err, "[loginEmail] executing template")
	}
	return mail.Message{
		From:    s.settings.MailFrom,
		To:      to,
		Subject: fmt.Sprintf("%s: your login code is %s", s.settings.SiteName, code),
		HTML:    body.String(),
	}, nil
}
