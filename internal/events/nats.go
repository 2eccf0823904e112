package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNatsPublisher(natsURL string, logger *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("tutorhub-api"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NatsPublisher{conn: nc, logger: logger}, nil
}

func (p *NatsPublisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("Published event", zap.String("subject", subject))
	return nil
}

func (p *NatsPublisher) PublishAvailabilityCreated(_ context.Context, event AvailabilityCreatedEvent) error {
	return p.publish(SubjectAvailabilityCreated, event)
}

func (p *NatsPublisher) PublishBookingCreated(_ context.Context, event BookingEvent) error {
	return p.publish(SubjectBookingCreated, event)
}

func (p *NatsPublisher) PublishBookingUpdated(_ context.Context, event BookingEvent) error {
	return p.publish(SubjectBookingUpdated, event)
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}
