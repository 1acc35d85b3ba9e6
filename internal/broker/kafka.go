package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tpcc-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &Producer{writer: writer}
}

// PublishEvent publishes an event to Kafka. Events with the same key land on
// the same partition and are consumed in order.
func (p *Producer) PublishEvent(ctx context.Context, key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	util.GetLogger().Debug("Published event", zap.String("key", key), zap.String("topic", p.writer.Topic))
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer represents a Kafka consumer
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &Consumer{reader: reader}
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// MessageHandler is a function type for handling messages
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Attempts a handler gets per message, with doubling pauses between them
var (
	handleAttempts = 3
	handleBackoff  = 500 * time.Millisecond
)

// StartConsuming feeds messages to handler until ctx is cancelled. A message
// is committed once handler accepts it or its retries run out.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	logger := util.GetLogger().With(zap.String("topic", c.reader.Config().Topic))
	logger.Info("Starting Kafka consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info("Consumer context cancelled, stopping")
				return ctx.Err()
			}
			logger.Error("Error fetching message", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		if !process(ctx, logger, handler, msg) {
			// uncommitted, redelivered to the group after restart
			return ctx.Err()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("Error committing message", zap.Error(err))
		}
	}
}

// process runs handler with retries and reports whether msg may be committed.
// A message that keeps failing is counted in BrokerMessagesFailedTotal and
// committed; one interrupted by cancellation is not.
func process(ctx context.Context, logger *zap.Logger, handler MessageHandler, msg kafka.Message) bool {
	var err error
	for attempt := 0; attempt < handleAttempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return true
		}
		logger.Warn("Error handling message",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		if attempt == handleAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(handleBackoff << attempt):
		}
	}
	if ctx.Err() != nil {
		return false
	}

	util.BrokerMessagesFailedTotal.WithLabelValues(msg.Topic).Inc()
	logger.Error("Giving up on message",
		zap.Int64("offset", msg.Offset),
		zap.String("key", string(msg.Key)),
		zap.Error(err))
	return true
}
