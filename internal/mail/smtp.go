package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

type smtpMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &smtpMailer{cfg: cfg, logger: logger}
}

func (m *smtpMailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.logger.Error("smtp send failed", "to", to, "subject", subject, "error", err)
		return err
	}
	m.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}
