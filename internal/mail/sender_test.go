package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/networkhq/network-intake/internal/events"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSendPartnershipEmail(t *testing.T) {
	d := &recordingDialer{}
	sender := NewEmailSenderWithDialer(d, "noreply@example.com", "team@example.com")

	evt := events.Event{
		Type:      events.EventPartnershipRequested,
		Email:     "org@b.co",
		Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Payload: events.PartnershipRequestedPayload{
			RequestID:    "req-1",
			Organization: "Acme",
			Contact:      "Jane",
			Phone:        "+971 50 123 4567",
		},
	}
	require.NoError(t, sender.Send(context.Background(), evt))
	require.Len(t, d.sent, 1)

	assert.Equal(t, []string{"team@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Partnership request: Acme"}, d.sent[0].GetHeader("Subject"))
	body := render(t, d.sent[0])
	assert.Contains(t, body, "req-1")
	assert.Contains(t, body, "+971 50 123 4567")
}

func TestSendWaitlistEmail(t *testing.T) {
	d := &recordingDialer{}
	sender := NewEmailSenderWithDialer(d, "noreply@example.com", "team@example.com")

	evt := events.Event{Type: events.EventWaitlistJoined, Email: "a@b.co", Payload: events.WaitlistJoinedPayload{Email: "a@b.co"}}
	require.NoError(t, sender.Send(context.Background(), evt))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"a@b.co"}, d.sent[0].GetHeader("Reply-To"))
}

func TestSendWrapsDialerError(t *testing.T) {
	sender := NewEmailSenderWithDialer(&recordingDialer{err: errors.New("refused")}, "f@x.co", "t@x.co")
	err := sender.Send(context.Background(), events.Event{Type: events.EventWaitlistJoined, Email: "a@b.co"})
	assert.ErrorContains(t, err, "refused")
}

func TestComposeUnknownEvent(t *testing.T) {
	sender := NewEmailSenderWithDialer(&recordingDialer{}, "f@x.co", "t@x.co")
	_, err := sender.Compose(events.Event{Type: "other"})
	assert.Error(t, err)
}
