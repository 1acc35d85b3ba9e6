package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"tpcc-service/internal/models"
	"tpcc-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher writes a keyed event
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishDeliveryQueued publishes a deferred Delivery. Deliveries of one
// warehouse share a key so they execute in the order they were queued.
func (ep *EventPublisher) PublishDeliveryQueued(ctx context.Context, event *models.DeliveryQueuedEvent) error {
	key := fmt.Sprintf("warehouse-%d", event.WarehouseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onDeliveryQueued func(context.Context, *models.DeliveryQueuedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnDeliveryQueued registers a handler for DeliveryQueued events
func (eh *EventHandler) OnDeliveryQueued(handler func(context.Context, *models.DeliveryQueuedEvent) error) {
	eh.onDeliveryQueued = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeDeliveryQueued:
		if eh.onDeliveryQueued != nil {
			var event models.DeliveryQueuedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DeliveryQueued event: %w", err)
			}
			return eh.onDeliveryQueued(ctx, &event)
		}

	default:
		logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
