package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shoply-app/shoply-backend/pkg/config"
	"github.com/shoply-app/shoply-backend/pkg/logger"
)

// Sender delivers transactional mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender validates the SMTP configuration and returns a sender.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// LogSender writes outbound mail to the log instead of delivering it.
// Used in dev environments without an SMTP relay.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"to": to, "subject": subject, "body": body})
		s.logg.Info(ctx, "mail.dispatch (log sender)")
	}
	return nil
}

// OTPBody renders the verification code message.
func OTPBody(code string, ttlMinutes int) string {
	return fmt.Sprintf("Your Shoply verification code is %s. It expires in %d minutes.", code, ttlMinutes)
}
