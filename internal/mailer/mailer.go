// Package mailer sends transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/mail.v2"
)

// ErrNotConfigured is returned when no SMTP relay is configured.
var ErrNotConfigured = errors.New("mailer is not configured")

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers through an SMTP relay.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer for host:port. Port 465 uses implicit TLS.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 20 * time.Second
	d.SSL = port == 465
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &SMTPMailer{dialer: d, from: from}
}

// Send dials, delivers and closes. The context only bounds the wait; the
// SMTP exchange itself is bounded by the dialer timeout.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	em := mail.NewMessage()
	em.SetHeader("From", m.from)
	em.SetHeader("To", msg.To)
	em.SetHeader("Subject", msg.Subject)
	em.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(em) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disabled is the Mailer used when SMTP is not configured.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) error { return ErrNotConfigured }

var resetTemplate = template.Must(template.New("reset").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to reset your Black Donut password.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>This link expires in {{.Minutes}} minutes. If you did not ask for a reset, you can ignore this email.</p>`))

// PasswordReset renders the password reset email.
func PasswordReset(to, name, link string, ttl time.Duration) (Message, error) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, struct {
		Name    string
		Link    string
		Minutes int
	}{Name: name, Link: link, Minutes: int(ttl.Minutes())})
	if err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}
	return Message{To: to, Subject: "Reset your Black Donut password", HTML: buf.String()}, nil
}
