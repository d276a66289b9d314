package service

import (
	"context"
	"fmt"

	"reservatec/pkg/kafka"
	"reservatec/pkg/model"
)

const (
	EventRequested = "reservation.requested"
	EventApproved  = "reservation.approved"
	EventRejected  = "reservation.rejected"
	EventCancelled = "reservation.cancelled"
	EventCompleted = "reservation.completed"
	EventRemoved   = "reservation.removed"

	EventSchemaVersion = "1"
)

// EventPublisher announces lifecycle transitions.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, rec model.ReservationRecord) error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

// NewKafkaPublisher publishes one message per transition, keyed by reservation id.
func NewKafkaPublisher(producer *kafka.Producer, source string) EventPublisher {
	return &kafkaPublisher{producer: producer, source: source}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, rec model.ReservationRecord) error {
	builder := kafka.NewMessage().
		WithKey(rec.ID).
		WithValue(rec).
		WithEventType(eventType).
		WithRequesterID(rec.Requester.ID).
		WithSchemaVersion(EventSchemaVersion).
		WithSource(p.source)
	if id := kafka.CorrelationIDFromContext(ctx); id != "" {
		builder = builder.WithCorrelationID(id)
	}

	msg, err := builder.BuildE()
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	return p.producer.Publish(ctx, msg)
}

type noopPublisher struct{}

// NewNoopPublisher drops every event. Used when EVENTS_ENABLED=false.
func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, model.ReservationRecord) error {
	return nil
}
