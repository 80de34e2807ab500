// Package mail sends the rendered report over SMTP.
package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Config holds the SMTP connection settings. From address is the username.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

// Sender sends a plain-text email to a recipient list.
type Sender interface {
	Send(subject, body string, recipients []string) error
}

// Mailer sends mail through a configured SMTP server. STARTTLS is applied
// only when Config.UseTLS is set; the session is never upgraded implicitly.
type Mailer struct {
	cfg Config
	now func() time.Time
}

// Ensure Mailer implements Sender.
var _ Sender = (*Mailer)(nil)

// New creates a Mailer with the given SMTP settings.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, now: time.Now}
}

// Send delivers one message to all recipients. Connection, authentication,
// and delivery failures propagate; there is no retry.
func (m *Mailer) Send(subject, body string, recipients []string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("SMTP server not configured")
	}

	from := m.cfg.Username
	if err := validateEmailAddress(from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	from = sanitizeEmailHeader(from)

	var to []string
	for _, addr := range recipients {
		if err := validateEmailAddress(addr); err != nil {
			return fmt.Errorf("invalid recipient address %q: %w", addr, err)
		}
		to = append(to, sanitizeEmailHeader(addr))
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipient addresses")
	}

	msg := m.buildMessage(from, to, subject, body)

	client, err := smtp.Dial(fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", addr, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message delivery failed: %w", err)
	}

	return client.Quit()
}

// buildMessage assembles the RFC 5322 message with sanitized headers.
func (m *Mailer) buildMessage(from string, to []string, subject, body string) []byte {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n",
		from, strings.Join(to, ", "), sanitizeEmailHeader(subject), m.now().Format(time.RFC1123Z))
	return []byte(headers + body)
}

// sanitizeEmailHeader removes CR and LF characters from email header values
// to prevent email header injection attacks.
func sanitizeEmailHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// validateEmailAddress performs basic email address validation.
func validateEmailAddress(email string) error {
	if strings.ContainsAny(email, "\r\n") {
		return fmt.Errorf("email address contains invalid characters")
	}
	if !strings.Contains(email, "@") || len(email) < 3 {
		return fmt.Errorf("invalid email address format")
	}
	return nil
}
