package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/pkg/logger"
)

const defaultSMTPTimeout = 15 * time.Second

// SMTPMailer sends through an SMTP relay. With TLS set the connection is
// TLS from the first byte (port 465); otherwise STARTTLS is used when the
// server offers it.
type SMTPMailer struct {
	cfg config.MailConfig
	now func() time.Time
}

// NewSMTPMailer creates a new SMTP transport.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, now: time.Now}
}

// SendMail delivers html to a single recipient.
func (m *SMTPMailer) SendMail(ctx context.Context, to, subject, html string) error {
	if err := validateMessage(to, subject, html); err != nil {
		return err
	}

	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to SMTP server %s: %w", m.cfg.Addr(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("create SMTP client: %w", err)
	}
	defer client.Close()

	if !m.cfg.TLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(m.tlsConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.FromAddress); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("add recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data connection: %w", err)
	}
	if _, err := w.Write(m.buildMessage(to, subject, html)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data connection: %w", err)
	}

	if err := client.Quit(); err != nil {
		logger.Warn("SMTP quit failed after accepted message", zap.String("to", to), zap.Error(err))
	}

	logger.Debug("mail sent via SMTP", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{}
	if m.cfg.TLS {
		td := &tls.Dialer{NetDialer: dialer, Config: m.tlsConfig()}
		return td.DialContext(ctx, "tcp", m.cfg.Addr())
	}
	return dialer.DialContext(ctx, "tcp", m.cfg.Addr())
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         m.cfg.Host,
		InsecureSkipVerify: m.cfg.SkipTLSVerify, //nolint:gosec // opt-in for self-signed relays
		MinVersion:         tls.VersionTLS12,
	}
}

// buildMessage renders RFC 5322 headers and a base64 HTML body.
func (m *SMTPMailer) buildMessage(to, subject, html string) []byte {
	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.FromAddress}

	headers := [][2]string{
		{"From", from.String()},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", m.now().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), messageIDHost(m.cfg.FromAddress))},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
		{"Content-Transfer-Encoding", "base64"},
	}

	var buf bytes.Buffer
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h[0], h[1])
	}
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(html))
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func messageIDHost(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "localhost"
}
