// Package notification implements outbound mail for invoices.
//
// Dispatch is synchronous from the caller's point of view: the invoice engine
// persists the Sent state only after SendMail returns nil. There is no retry
// and no outbox.
package notification

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/pkg/worker"
)

// Mailer delivers one HTML message to one recipient.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, html string) error
}

// LogMailer writes messages to the log instead of a mail server.
// It is the default transport for local development.
type LogMailer struct {
	mu   sync.Mutex
	sent []SentMail
}

// SentMail is a message accepted by LogMailer.
type SentMail struct {
	To      string
	Subject string
	HTML    string
}

// NewLogMailer creates a new log transport.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendMail logs the message and keeps a copy.
func (m *LogMailer) SendMail(ctx context.Context, to, subject, html string) error {
	if err := validateMessage(to, subject, html); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, HTML: html})
	m.mu.Unlock()

	logger.Info("mail dispatched to log transport",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("html_bytes", len(html)),
	)
	return nil
}

// Sent returns a copy of every accepted message.
func (m *LogMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// compile-time checks
var (
	_ Mailer = (*LogMailer)(nil)
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*PooledMailer)(nil)
)

// NewMailer builds the configured transport. When pool is non-nil, dispatch
// runs on it so a slow mail server cannot occupy more than its capacity.
func NewMailer(cfg config.MailConfig, pool *worker.Pool) (Mailer, error) {
	var base Mailer
	switch cfg.Driver {
	case config.MailDriverSMTP:
		base = NewSMTPMailer(cfg)
	case config.MailDriverLog, "":
		base = NewLogMailer()
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
	if pool == nil {
		return base, nil
	}
	return NewPooledMailer(base, pool), nil
}

// --- Helpers ---

func validateMessage(to, subject, html string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	if subject == "" {
		return fmt.Errorf("subject is required")
	}
	if html == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}
