package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/events"
)

// NotificationService logs domain events and forwards them to the broker
// when one is configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	forwarder  events.Forwarder
	logger     *zap.Logger
}

// NewNotificationService creates the service. forwarder may be nil.
func NewNotificationService(dispatcher events.Dispatcher, forwarder events.Forwarder, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		forwarder:  forwarder,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("domain event",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.String("entity_id", event.EntityID),
		zap.Stringp("actor_id", event.ActorID),
		zap.Any("payload", event.Payload),
	)
	if n.forwarder == nil {
		return nil
	}
	return n.forwarder.Forward(ctx, event)
}
