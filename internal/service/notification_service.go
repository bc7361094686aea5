package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/networkhq/network-intake/internal/events"
	"github.com/networkhq/network-intake/internal/observability"
)

// Mailer sends the team email for an intake event.
type Mailer interface {
	Send(ctx context.Context, evt events.Event) error
}

// EventPublisher forwards intake events to the message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, evt events.Event) error
}

// NotificationService tells the team about new submissions. Each channel is
// optional; a nil channel is skipped.
type NotificationService struct {
	mailer    Mailer
	publisher EventPublisher
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(mailer Mailer, publisher EventPublisher, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Deliver pushes evt to every configured channel. A failing channel does not
// prevent delivery on the others.
func (n *NotificationService) Deliver(ctx context.Context, evt events.Event) error {
	var errs []error

	if n.mailer != nil {
		err := n.mailer.Send(ctx, evt)
		n.metrics.RecordDelivery("email", err)
		if err != nil {
			n.logger.Error("email notification failed", zap.String("event_id", evt.ID), zap.String("event_type", string(evt.Type)), zap.Error(err))
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if n.publisher != nil {
		err := n.publisher.PublishEvent(ctx, evt)
		n.metrics.RecordDelivery("queue", err)
		if err != nil {
			n.logger.Error("queue notification failed", zap.String("event_id", evt.ID), zap.String("event_type", string(evt.Type)), zap.Error(err))
			errs = append(errs, fmt.Errorf("queue: %w", err))
		}
	}

	if len(errs) == 0 {
		n.logger.Debug("notification delivered", zap.String("event_id", evt.ID), zap.String("event_type", string(evt.Type)))
	}
	return errors.Join(errs...)
}
