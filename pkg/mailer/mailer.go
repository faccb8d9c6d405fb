package mailer

import (
	"errors"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/velora-labs/velora-backend/pkg/config"
)

var errSMTPHostRequired = errors.New("smtp host is required")

// Sender delivers transactional mail. Services depend on this interface so
// tests can swap in a recorder.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Mailer sends mail over the configured SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New validates the SMTP settings and builds the mailer.
func New(cfg config.SMTPConfig) (*Mailer, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errSMTPHostRequired
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, errors.New("smtp from address is required")
	}

	return &Mailer{
		dialer: gomail.NewDialer(host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}, nil
}

// Send delivers a single HTML message.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m == nil || m.dialer == nil {
		return errors.New("mailer not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
