package worker

import (
	"context"

	"tpcc-service/internal/broker"
	"tpcc-service/internal/service"
	"tpcc-service/internal/util"

	"go.uber.org/zap"
)

// Consumer feeds queued messages to a handler
type Consumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// DeliveryWorker executes deferred Delivery transactions queued on Kafka
type DeliveryWorker struct {
	name         string
	consumer     Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewDeliveryWorker creates a new delivery worker. name identifies the
// consumed topic in logs.
func NewDeliveryWorker(name string, consumer Consumer, engine *service.Engine) *DeliveryWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnDeliveryQueued(engine.HandleDeliveryQueued)

	return &DeliveryWorker{
		name:         name,
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming events until ctx is cancelled
func (w *DeliveryWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting delivery worker", zap.String("topic", w.name))
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *DeliveryWorker) Stop() error {
	w.logger.Info("Stopping delivery worker", zap.String("topic", w.name))
	return w.consumer.Close()
}
