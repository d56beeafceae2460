package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/config"
	"github.com/spec-kit/moderation-service/internal/events"
	"github.com/spec-kit/moderation-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to every
// domain event, forwarding to NATS when a URL is configured. The returned
// stop function drains the broker connection.
func StartNotificationWorker(dispatcher events.Dispatcher, cfg config.NATSConfig, logger *zap.Logger) (func(), error) {
	var forwarder events.Forwarder
	if cfg.URL != "" {
		publisher, err := events.NewNATSPublisher(cfg.URL, cfg.SubjectPrefix, logger)
		if err != nil {
			return nil, err
		}
		forwarder = publisher
	} else {
		logger.Info("NATS_URL not set; domain events are logged only")
	}

	service.NewNotificationService(dispatcher, forwarder, logger).RegisterHandlers()

	return func() {
		if forwarder == nil {
			return
		}
		if err := forwarder.Close(); err != nil {
			logger.Warn("drain nats", zap.Error(err))
		}
	}, nil
}
