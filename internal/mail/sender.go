package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/networkhq/network-intake/internal/events"
)

// Dialer delivers composed messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender notifies the team inbox about new submissions over SMTP.
type EmailSender struct {
	dialer Dialer
	from   string
	to     string
}

// NewEmailSender builds a sender backed by an SMTP dialer.
func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return NewEmailSenderWithDialer(gomail.NewDialer(host, port, user, password), from, to)
}

// NewEmailSenderWithDialer builds a sender around an existing dialer.
func NewEmailSenderWithDialer(d Dialer, from, to string) *EmailSender {
	return &EmailSender{dialer: d, from: from, to: to}
}

var (
	waitlistBody = template.Must(template.New("waitlist").Parse(
		"New waitlist signup\n\nEmail: {{.Email}}\nJoined at: {{.Timestamp.Format \"2006-01-02 15:04:05 MST\"}}\n"))
	partnershipBody = template.Must(template.New("partnership").Parse(
		"New partnership request\n\nRequest ID: {{.Payload.RequestID}}\nOrganization: {{.Payload.Organization}}\n" +
			"Contact: {{.Payload.Contact}}\nEmail: {{.Email}}\nPhone: {{.Payload.Phone}}\n" +
			"Submitted at: {{.Timestamp.Format \"2006-01-02 15:04:05 MST\"}}\n"))
)

// Compose renders the notification message for an intake event.
func (s *EmailSender) Compose(evt events.Event) (*gomail.Message, error) {
	var (
		tmpl    *template.Template
		subject string
	)
	switch evt.Type {
	case events.EventWaitlistJoined:
		tmpl, subject = waitlistBody, fmt.Sprintf("Waitlist signup: %s", evt.Email)
	case events.EventPartnershipRequested:
		payload, ok := evt.Payload.(events.PartnershipRequestedPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T for %s", evt.Payload, evt.Type)
		}
		tmpl, subject = partnershipBody, fmt.Sprintf("Partnership request: %s", payload.Organization)
	default:
		return nil, fmt.Errorf("no email template for event %s", evt.Type)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, evt); err != nil {
		return nil, fmt.Errorf("render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Reply-To", evt.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body.String())
	return m, nil
}

// Send composes and delivers the notification for evt.
func (s *EmailSender) Send(ctx context.Context, evt events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.Compose(evt)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}
	return nil
}
