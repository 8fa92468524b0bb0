package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"
)

// SMTPConfig holds mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	cfg  SMTPConfig
	addr string
}

// NewSMTPSender falls back to cfg.User when cfg.From is empty.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPSender{cfg: cfg, addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}
}

func (s *SMTPSender) Send(_ context.Context, m Message) error {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{m.To}
	e.Subject = m.Subject
	e.Text = []byte(m.Body)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	if err := e.Send(s.addr, auth); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.To, err)
	}
	return nil
}

// LogSender logs messages; used when no SMTP host is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Logger.Info().Str("to", m.To).Str("subject", m.Subject).Msg("mail (not delivered)")
	return nil
}
