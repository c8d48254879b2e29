package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"willtank/internal/config"
	"willtank/internal/logger"
)

// Message is a single outgoing email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	ReplyTo  string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends mail through an SMTP relay using gomail.
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
}

// NewSender returns an SMTP sender, or a log-only sender when SMTP_HOST is unset.
func NewSender(cfg config.MailConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetBody("text/html", msg.HTMLBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used in
// development when no SMTP relay is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.FromContext(ctx).Info("mail not sent, smtp disabled",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.HTMLBody,
	)
	return nil
}
