package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"gstbilling/internal/config"

	"github.com/jordan-wright/email"
)

// ErrMailerDisabled is returned when SMTP_HOST is not configured.
var ErrMailerDisabled = errors.New("mailer: SMTP is not configured")

// Mailer wraps SMTP configuration for sending emails with PDF attachments.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPUser
	if cfg.CompanyName != "" && cfg.SMTPUser != "" {
		from = fmt.Sprintf("%s <%s>", cfg.CompanyName, cfg.SMTPUser)
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.host != "" }

// SendInvoice mails a tax invoice PDF to a customer.
func (m *Mailer) SendInvoice(to, subject, body, pdfPath string) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
