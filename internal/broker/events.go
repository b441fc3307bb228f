package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-admin/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes transaction lifecycle events keyed by booking ID
// so every transition of one transaction lands on the same partition.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishTransactionEvent publishes a transaction lifecycle event
func (ep *EventPublisher) PublishTransactionEvent(ctx context.Context, event *models.TransactionEvent) error {
	key := fmt.Sprintf("trx-%d", event.TransactionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// DecodeTransactionEvent unmarshals a consumed message into a lifecycle
// event. The event type on the envelope decides how consumers react.
func DecodeTransactionEvent(msg kafka.Message) (*models.TransactionEvent, error) {
	var event models.TransactionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction event: %w", err)
	}
	return &event, nil
}
