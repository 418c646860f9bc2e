package alerts

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/dajohi/goemail"
)

// Mailer sends a single plain text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailConfig selects and configures the outgoing mail provider.
type MailConfig struct {
	Provider string // smtp|plunk, empty disables mail
	ReplyTo  string // plunk only

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PlunkAPIKey string
	PlunkFrom   string
	PlunkAPIURL string
}

// NewMailer returns the configured provider, or a LogMailer when mail is
// disabled.
func NewMailer(cfg MailConfig) (Mailer, error) {
	switch cfg.Provider {
	case "":
		return LogMailer{}, nil
	case "smtp":
		return NewSMTPMailer(cfg)
	case "plunk":
		return NewPlunkMailer(cfg)
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
}

// SMTPMailer sends mail over SMTPS.
type SMTPMailer struct {
	client  *goemail.SMTP
	name    string
	address string
}

func NewSMTPMailer(cfg MailConfig) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" || cfg.SMTPPort == "" || cfg.SMTPUsername == "" || cfg.SMTPPassword == "" || cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("smtp not configured: set SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM (or set MAIL_PROVIDER=plunk)")
	}
	u := url.URL{
		Scheme: "smtps",
		User:   url.UserPassword(cfg.SMTPUsername, cfg.SMTPPassword),
		Host:   cfg.SMTPHost + ":" + cfg.SMTPPort,
	}
	a, err := mail.ParseAddress(cfg.SMTPFrom)
	if err != nil {
		return nil, fmt.Errorf("smtp from address: %w", err)
	}
	client, err := goemail.NewSMTP(u.String(), &tls.Config{ServerName: cfg.SMTPHost})
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	log.Infof("Mail host: smtps://%v:[password]@%v", cfg.SMTPUsername, u.Host)
	return &SMTPMailer{client: client, name: a.Name, address: a.Address}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := goemail.NewMessage(m.address, subject, body)
	msg.SetName(m.name)
	msg.AddBCC(to)
	return m.client.Send(msg)
}

// LogMailer only logs. It is used when no provider is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	log.Infof("Mail disabled, dropping %q to %s", subject, to)
	return nil
}
