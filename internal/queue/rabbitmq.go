package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys used on the intake exchange.
const (
	RoutingKeyWaitlist    = "intake.waitlist"
	RoutingKeyPartnership = "intake.partnership"
)

// RabbitMQ owns the broker connection and the channel used for publishing.
type RabbitMQ struct {
	Conn     *amqp.Connection
	Ch       *amqp.Channel
	Exchange string
}

// NewRabbitMQ dials url and declares a durable topic exchange.
func NewRabbitMQ(url, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQ{Conn: conn, Ch: ch, Exchange: exchange}, nil
}

// Close releases the channel and connection.
func (r *RabbitMQ) Close() {
	if r == nil {
		return
	}
	if r.Ch != nil {
		_ = r.Ch.Close()
	}
	if r.Conn != nil {
		_ = r.Conn.Close()
	}
}
