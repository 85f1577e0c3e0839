package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Message is one rendered email ready for delivery.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers a rendered message.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	Addr     string // host:port
	Host     string
	Username string
	Password string
	From     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Host:     host,
		Username: username,
		Password: password,
		From:     from,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(m.Addr, auth, m.From, msg.To, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail failed: %w", err)
	}
	return nil
}

// NopMailer discards messages. Used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) Send(Message) error { return nil }
