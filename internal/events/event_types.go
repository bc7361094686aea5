package events

import (
	"time"

	"github.com/networkhq/network-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWaitlistJoined       EventType = "waitlist_joined"
	EventPartnershipRequested EventType = "partnership_requested"
)

// Event represents a domain event emitted by services after a successful write.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// WaitlistJoinedPayload payload.
type WaitlistJoinedPayload struct {
	Email string `json:"email"`
}

// PartnershipRequestedPayload payload.
type PartnershipRequestedPayload struct {
	RequestID    string `json:"request_id"`
	Organization string `json:"organization"`
	Contact      string `json:"contact"`
	Phone        string `json:"phone"`
	PhoneRegion  string `json:"phone_region,omitempty"`
}

// NewSubmissionEvent builds the event announcing sub. id must be unique per event.
func NewSubmissionEvent(id string, sub *domain.Submission) Event {
	evt := Event{
		ID:        id,
		Email:     sub.Email,
		Timestamp: sub.CreatedAt,
	}
	switch sub.Kind {
	case domain.KindPartnership:
		evt.Type = EventPartnershipRequested
		evt.Payload = PartnershipRequestedPayload{
			RequestID:    sub.RequestID,
			Organization: sub.Organization,
			Contact:      sub.Contact,
			Phone:        sub.Phone,
			PhoneRegion:  sub.PhoneRegion,
		}
	default:
		evt.Type = EventWaitlistJoined
		evt.Payload = WaitlistJoinedPayload{Email: sub.Email}
	}
	return evt
}
