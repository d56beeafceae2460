package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Forwarder ships events to an external broker.
type Forwarder interface {
	Forward(ctx context.Context, event Event) error
	Close() error
}

// natsConn is the subset of *nats.Conn used by NATSPublisher.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes each event as JSON on <prefix>.<event type>.
type NATSPublisher struct {
	conn   natsConn
	prefix string
	logger *zap.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subjectPrefix string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("moderation-service"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to nats", zap.String("url", url))
	return newNATSPublisher(nc, subjectPrefix, logger), nil
}

func newNATSPublisher(conn natsConn, subjectPrefix string, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: subjectPrefix, logger: logger}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(eventType EventType) string {
	if p.prefix == "" {
		return string(eventType)
	}
	return p.prefix + "." + string(eventType)
}

// Forward publishes event. The context is unused because core NATS
// publishes are buffered and never block on the server.
func (p *NATSPublisher) Forward(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	return p.conn.Publish(p.Subject(event.Type), data)
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
