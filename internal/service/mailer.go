package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/q360hq/q360/pkg/slogx"
)

// Mailer delivers the transactional emails the auth flows depend on.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
}

// LogMailer writes the email to the log instead of sending it. Used in
// dev and in tests where no SMTP server is available.
type LogMailer struct{}

func (LogMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	slogx.FromContext(ctx).Info("verification email (log mailer)", "to", to, "token", token)
	return nil
}

func (LogMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	slogx.FromContext(ctx).Info("password reset email (log mailer)", "to", to, "token", token)
	return nil
}

// SMTPMailer sends plain text emails through a single SMTP relay.
type SMTPMailer struct {
	Addr    string // host:port of the relay
	From    string
	BaseURL string // public base URL used to build links
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.BaseURL, token)
	return m.send(to, "Verify your email",
		"Welcome! Confirm your email address by opening the link below.\r\n\r\n"+link)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.BaseURL, token)
	return m.send(to, "Reset your password",
		"A password reset was requested for your account. The link below is valid for 24 hours.\r\n\r\n"+
			link+"\r\n\r\nIf you did not request this, you can ignore this email.")
}
