package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/networkhq/network-intake/internal/events"
)

// Channel is the publishing subset of *amqp.Channel.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EventProducer publishes intake events as JSON.
type EventProducer struct {
	ch       Channel
	exchange string
}

// NewProducer returns a producer writing to exchange over ch.
func NewProducer(ch Channel, exchange string) *EventProducer {
	return &EventProducer{ch: ch, exchange: exchange}
}

// RoutingKey maps an event type to its routing key.
func RoutingKey(t events.EventType) (string, error) {
	switch t {
	case events.EventWaitlistJoined:
		return RoutingKeyWaitlist, nil
	case events.EventPartnershipRequested:
		return RoutingKeyPartnership, nil
	default:
		return "", fmt.Errorf("no routing key for event %s", t)
	}
}

// PublishEvent sends evt as a persistent JSON message.
func (p *EventProducer) PublishEvent(ctx context.Context, evt events.Event) error {
	key, err := RoutingKey(evt.Type)
	if err != nil {
		return err
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    evt.ID,
			Timestamp:    evt.Timestamp,
			Type:         string(evt.Type),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}
	return nil
}
