package broker

import (
	"context"
	"fmt"
	"time"

	"sales-service/internal/models"

	"github.com/google/uuid"
)

// EventPublisher handles publishing order change events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewBaseEvent stamps a fresh event id and timestamp
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PublishOrderUpserted publishes an OrderUpserted event keyed by surrogate id
func (ep *EventPublisher) PublishOrderUpserted(ctx context.Context, event *models.OrderUpsertedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.ID), event)
}

// PublishOrderDeleted publishes an OrderDeleted event keyed by surrogate id
func (ep *EventPublisher) PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, eventKey(event.ID), event)
}

func eventKey(id int64) string {
	return fmt.Sprintf("order-%d", id)
}
