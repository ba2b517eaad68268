// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/princinho/toursbackend/config"
	"github.com/princinho/toursbackend/logger"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send dials the server for every message. gomail bounds the dial with its
// own timeout, so ctx is only checked before sending.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(m.message(to, subject, body)); err != nil {
		logger.FromContext(ctx).Error("could not send email", "to", to, "error", err)
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}

// PasswordReset builds the reset email pointing at resetURL.
func PasswordReset(resetURL string) (subject, body string) {
	subject = "Your password reset token (valid for 10 min)"
	body = fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\n"+
		"If you didn't forget your password, please ignore this email!", resetURL)
	return subject, body
}
