package smtp

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/succession-vault/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

// NewMailer returns an SMTP mailer, or a log-only mailer when SMTP_HOST is empty.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return logMailer{}
	}
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	addr := m.host + ":" + m.port

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := buildMessage(m.from, to, subject, body, time.Now())
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// buildMessage renders a plain-text RFC 5322 message. Header values are
// stripped of CR/LF so user-supplied names cannot inject headers.
func buildMessage(from, to, subject, body string, at time.Time) []byte {
	clean := strings.NewReplacer("\r", "", "\n", " ")
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", clean.Replace(from))
	fmt.Fprintf(&b, "To: %s\r\n", clean.Replace(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", clean.Replace(subject))
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

type logMailer struct{}

func (logMailer) SendEmail(to, subject, _ string) error {
	slog.Info("mail delivery disabled", "to", to, "subject", subject)
	return nil
}
