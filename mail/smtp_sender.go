package mail

import (
	"context"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSettings configures an SMTPSender.
type SMTPSettings struct {
	Host     string
	Port     int
	Account  string
	Password string
	Domain   string // HELO name, optional
}

// SMTPSender delivers mail through an authenticated SMTP relay using STARTTLS.
type SMTPSender struct {
	settings SMTPSettings
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(settings SMTPSettings) *SMTPSender {
	return &SMTPSender{settings: settings}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.settings.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if s.settings.Account != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
			gomail.WithUsername(s.settings.Account),
			gomail.WithPassword(s.settings.Password),
		)
	}
	if s.settings.Domain != "" {
		opts = append(opts, gomail.WithHELO(s.settings.Domain))
	}

	client, err := gomail.NewClient(s.settings.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "[SMTPSender.Send] creating client")
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return errors.Wrapf(err, "[SMTPSender.Send] delivering to %s", msg.To)
	}
	return nil
}

func buildMessage(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, errors.Wrap(err, "[buildMessage] invalid from address")
	}
	if err := m.To(msg.To); err != nil {
		return nil, errors.Wrap(err, "[buildMessage] invalid to address")
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, PlainText(msg.HTML))
	m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	return m, nil
}
