package worker

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"tpcc-service/config"
	"tpcc-service/internal/broker"
	"tpcc-service/internal/models"
	"tpcc-service/internal/service"
	"tpcc-service/internal/store"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsumer hands its messages to the handler once and records the results
type fakeConsumer struct {
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (c *fakeConsumer) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for _, msg := range c.messages {
		c.errs = append(c.errs, handler(ctx, msg))
	}
	return nil
}

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

func preparedEngine(t *testing.T) *service.Engine {
	t.Helper()
	st, err := store.NewStore(config.DatabaseConfig{
		URL:            "sqlite://" + filepath.Join(t.TempDir(), "worker.db"),
		MaxOpenConns:   4,
		AcquireTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := service.NewEngine(st, nil, nil, service.Options{
		Population: service.Population{Items: 100, CustomersPerDistrict: 20, OrdersPerDistrict: 20, DeliveredOrders: 14},
		LoadSeed:   5,
	})
	_, err = engine.Prepare(context.Background(), 1)
	require.NoError(t, err)
	return engine
}

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Topic: "tpcc-delivery", Value: raw}
}

func TestDeliveryWorkerRunsQueuedDelivery(t *testing.T) {
	engine := preparedEngine(t)
	ctx := context.Background()

	now := time.Now().UTC()
	consumer := &fakeConsumer{messages: []kafka.Message{
		message(t, &models.DeliveryQueuedEvent{
			BaseEvent:   models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeDeliveryQueued, Timestamp: now},
			WarehouseID: 1,
			CarrierID:   4,
			QueuedAt:    now,
		}),
		message(t, &models.BaseEvent{EventID: "evt-2", EventType: "SomethingElse", Timestamp: now}),
	}}

	w := NewDeliveryWorker("tpcc-delivery", consumer, engine)
	require.NoError(t, w.Start(ctx))
	require.Len(t, consumer.errs, 2)
	assert.NoError(t, consumer.errs[0])
	assert.NoError(t, consumer.errs[1])

	assert.Equal(t, uint64(1), engine.Statistics().Delivery.Count)
	status, err := engine.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.Counts.NewOrders)

	require.NoError(t, w.Stop())
	assert.True(t, consumer.closed)
}

func TestDeliveryWorkerReportsStorageErrors(t *testing.T) {
	engine := preparedEngine(t)

	now := time.Now().UTC()
	consumer := &fakeConsumer{messages: []kafka.Message{
		message(t, &models.DeliveryQueuedEvent{
			BaseEvent:   models.BaseEvent{EventID: "evt-3", EventType: models.EventTypeDeliveryQueued, Timestamp: now},
			WarehouseID: 1,
			CarrierID:   4,
			QueuedAt:    now,
		}),
	}}

	// a cancelled context fails the transaction, so the consumer sees the error
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewDeliveryWorker("tpcc-delivery", consumer, engine)
	require.NoError(t, w.Start(ctx))
	require.Len(t, consumer.errs, 1)
	assert.Error(t, consumer.errs[0])
	assert.Zero(t, engine.Statistics().Delivery.Count)
}
