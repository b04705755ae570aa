// Package mailer delivers rendered emails over SMTP, or prints them when no credentials are configured.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// SMTPConfig holds SMTP delivery settings
type SMTPConfig struct {
	Server    string
	Port      int
	FromEmail string
	Password  string
}

// Enabled reports whether credentials are present
func (c SMTPConfig) Enabled() bool {
	return c.FromEmail != "" && c.Password != ""
}

// SMTPMailer sends email through an SMTP server using STARTTLS and PLAIN auth
type SMTPMailer struct {
	cfg         SMTPConfig
	dialTimeout time.Duration
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:         cfg,
		dialTimeout: 10 * time.Second,
	}
}

// Send delivers a single email
func (m *SMTPMailer) Send(ctx context.Context, email domain.Email) error {
	addr := net.JoinHostPort(m.cfg.Server, strconv.Itoa(m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Server}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	if err := client.Auth(smtp.PlainAuth("", m.cfg.FromEmail, m.cfg.Password, m.cfg.Server)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.cfg.FromEmail); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(email.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(BuildMessage(m.cfg.FromEmail, email)); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	log.Info().Str("to", email.To).Msg("Email sent")
	return client.Quit()
}

// BuildMessage renders RFC 5322 headers and a plain-text body with CRLF line endings
func BuildMessage(from string, email domain.Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + email.To + "\r\n")
	b.WriteString("Subject: " + email.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(email.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
