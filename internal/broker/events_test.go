package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tpcc-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys   []string
	events []interface{}
}

func (p *recordingPublisher) PublishEvent(_ context.Context, key string, event interface{}) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func deliveryEvent() *models.DeliveryQueuedEvent {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.DeliveryQueuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeDeliveryQueued,
			Timestamp: now,
		},
		WarehouseID: 3,
		CarrierID:   7,
		QueuedAt:    now,
	}
}

func TestPublishDeliveryQueuedKeysByWarehouse(t *testing.T) {
	p := &recordingPublisher{}
	ep := NewEventPublisher(p)

	require.NoError(t, ep.PublishDeliveryQueued(context.Background(), deliveryEvent()))
	assert.Equal(t, []string{"warehouse-3"}, p.keys)
}

func TestHandleMessageRoutesDeliveryQueued(t *testing.T) {
	sent := deliveryEvent()
	raw, err := json.Marshal(sent)
	require.NoError(t, err)

	var got *models.DeliveryQueuedEvent
	eh := NewEventHandler()
	eh.OnDeliveryQueued(func(_ context.Context, e *models.DeliveryQueuedEvent) error {
		got = e
		return nil
	})

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: raw}))
	require.NotNil(t, got)
	assert.Equal(t, sent.EventID, got.EventID)
	assert.Equal(t, int32(3), got.WarehouseID)
	assert.Equal(t, int32(7), got.CarrierID)
	assert.True(t, sent.QueuedAt.Equal(got.QueuedAt))
}

func TestHandleMessageIgnoresUnknownEvents(t *testing.T) {
	eh := NewEventHandler()
	called := false
	eh.OnDeliveryQueued(func(context.Context, *models.DeliveryQueuedEvent) error {
		called = true
		return nil
	})

	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)})
	assert.NoError(t, err)
	assert.False(t, called)

	err = eh.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})
	assert.Error(t, err)
}
