package mail

import (
	"gopkg.in/gomail.v2"
)

// Mailer is the single send operation the reminder dispatcher needs. The
// SMTP implementation below is swapped for a recording fake in tests.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type SMTPMailer struct {
	cfg SMTPConfig
	d   *gomail.Dialer
}

func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg: cfg,
		d:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}
}

// Send makes a single delivery attempt. There is no retry here: a failed
// reminder keeps its idempotency stamp unset and is retried on the next
// dispatcher pass.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.d.DialAndSend(msg)
}
