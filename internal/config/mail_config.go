package config

type MailConfig interface {
	GetSmtpHost() string
	GetSmtpPort() int
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetSmtpDomain() string
	GetSmtpFrom() string
}

type Mail struct {
	src *source
}

var _ MailConfig = Mail{}

func (m Mail) GetSmtpHost() string {
	return m.src.get("SMTP_HOST", "localhost")
}

func (m Mail) GetSmtpPort() int {
	return m.src.getInt("SMTP_PORT", 587)
}

func (m Mail) GetSmtpAccount() string {
	return m.src.get("SMTP_ACCOUNT", "")
}

func (m Mail) GetSmtpPassword() string {
	return m.src.get("SMTP_PASSWORD", "")
}

func (m Mail) GetSmtpDomain() string {
	return m.src.get("SMTP_DOMAIN", "")
}

func (m Mail) GetSmtpFrom() string {
	return m.src.get("SMTP_FROM", "noreply@localhost")
}
