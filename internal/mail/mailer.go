// Package mail delivers HTML email. Delivery is an external collaborator;
// everything behind the Mailer interface is replaceable.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends a single HTML message.
type Mailer interface {
	SendHTML(subject, htmlBody, recipient string) error
}

// SMTPConfig configures the SMTP mailer.
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTPMailer builds a mailer from config.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: cfg}
}

// SendHTML sends one HTML message. Failures are logged and returned; the
// caller decides whether they are fatal for the request.
func (m *SMTPMailer) SendHTML(subject, htmlBody, recipient string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	host := m.config.Addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	var a smtp.Auth
	if m.config.Username != "" {
		a = smtp.PlainAuth("", m.config.Username, m.config.Password, host)
	}

	if err := smtp.SendMail(m.config.Addr, a, m.config.From, []string{recipient}, []byte(msg.String())); err != nil {
		slog.Error("email failed to send",
			slog.String("recipient", recipient),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

var confirmTemplate = template.Must(template.New("confirm").Parse(
	`<p>Hello {{.Name}},</p>
<p>Please confirm your email address by following the link below:</p>
<p><a href="{{.ConfirmLink}}">Confirm email</a></p>
<p>If you did not create an account, ignore this message.</p>`))

// RenderConfirmation renders the confirmation-email body.
func RenderConfirmation(name, confirmLink string) (string, error) {
	var buf bytes.Buffer
	err := confirmTemplate.Execute(&buf, struct {
		Name        string
		ConfirmLink string
	}{Name: name, ConfirmLink: confirmLink})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
