package senders

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

const defaultSubject = "Przypomnienie o wizycie"

// SMTPSender sends email via unauthenticated SMTP (Mailpit-compatible in dev).
type SMTPSender struct {
	addr    string
	from    string
	subject string
}

func NewSMTPSender(host string, port string, from string) *SMTPSender {
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@fachline.local"
	}
	return &SMTPSender{
		addr:    fmt.Sprintf("%s:%s", strings.TrimSpace(host), strings.TrimSpace(port)),
		from:    from,
		subject: defaultSubject,
	}
}

func (s *SMTPSender) ProviderID() string {
	return "smtp"
}

func (s *SMTPSender) Send(_ context.Context, to string, content string) error {
	msg := buildMessage(s.from, to, s.subject, content)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}
