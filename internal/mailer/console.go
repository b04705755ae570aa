package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConsoleMailer prints emails instead of sending them
type ConsoleMailer struct {
	out io.Writer
	mu  sync.Mutex
}

// NewConsoleMailer creates a ConsoleMailer writing to out
func NewConsoleMailer(out io.Writer) *ConsoleMailer {
	return &ConsoleMailer{out: out}
}

// Send prints the email as a single block
func (m *ConsoleMailer) Send(ctx context.Context, email domain.Email) error {
	separator := strings.Repeat("=", 60)
	block := fmt.Sprintf("\n%s\nTo: %s\nSubject: %s\n\n%s\n%s\n", separator, email.To, email.Subject, email.Body, separator)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := io.WriteString(m.out, block); err != nil {
		return err
	}

	log.Debug().Str("to", email.To).Msg("Email printed to console")
	return nil
}

// New picks the SMTP mailer when credentials are configured, otherwise the console mailer
func New(cfg SMTPConfig, console io.Writer) domain.Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg)
	}
	log.Warn().Msg("SMTP credentials not provided, emails will be printed to the console")
	return NewConsoleMailer(console)
}
