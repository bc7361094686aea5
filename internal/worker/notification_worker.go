package worker

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/networkhq/network-intake/internal/events"
)

// Deliverer handles one event. *service.NotificationService satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, evt events.Event) error
}

// NotificationWorker moves intake events off the request path. Events are
// buffered and delivered one at a time by Run.
type NotificationWorker struct {
	queue     chan events.Event
	deliverer Deliverer
	logger    *zap.Logger
	dropped   atomic.Int64
}

// NewNotificationWorker builds a worker with a buffer of size events.
func NewNotificationWorker(deliverer Deliverer, size int, logger *zap.Logger) *NotificationWorker {
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		queue:     make(chan events.Event, size),
		deliverer: deliverer,
		logger:    logger,
	}
}

// Subscribe registers the worker for every intake event type.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventWaitlistJoined, w.Enqueue)
	dispatcher.Subscribe(events.EventPartnershipRequested, w.Enqueue)
}

// Enqueue buffers evt without blocking. A full buffer drops the event.
func (w *NotificationWorker) Enqueue(_ context.Context, evt events.Event) error {
	select {
	case w.queue <- evt:
	default:
		w.dropped.Add(1)
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", string(evt.Type)))
	}
	return nil
}

// Run delivers buffered events until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("notification worker started", zap.Int("buffer", cap(w.queue)))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopped", zap.Int("pending", len(w.queue)))
			return
		case evt := <-w.queue:
			// An in-flight delivery finishes even if shutdown begins.
			if err := w.deliverer.Deliver(context.WithoutCancel(ctx), evt); err != nil {
				w.logger.Warn("notification delivery failed", zap.String("event_id", evt.ID), zap.Error(err))
			}
		}
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (w *NotificationWorker) Dropped() int64 {
	return w.dropped.Load()
}
