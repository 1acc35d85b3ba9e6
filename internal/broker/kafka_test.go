package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tpcc-service/internal/util"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func fastRetries(t *testing.T) {
	t.Helper()
	prev := handleBackoff
	handleBackoff = time.Millisecond
	t.Cleanup(func() { handleBackoff = prev })
}

func failingHandler(failures int, calls *int) MessageHandler {
	return func(context.Context, kafka.Message) error {
		*calls++
		if *calls <= failures {
			return errors.New("storage unavailable")
		}
		return nil
	}
}

func TestProcessRetriesTransientFailure(t *testing.T) {
	fastRetries(t)
	failed := util.BrokerMessagesFailedTotal.WithLabelValues("retry-transient")
	before := testutil.ToFloat64(failed)

	calls := 0
	ok := process(context.Background(), zap.NewNop(), failingHandler(2, &calls),
		kafka.Message{Topic: "retry-transient", Offset: 4})

	assert.True(t, ok)
	assert.Equal(t, 3, calls)
	assert.Equal(t, before, testutil.ToFloat64(failed))
}

func TestProcessCountsExhaustedMessage(t *testing.T) {
	fastRetries(t)
	failed := util.BrokerMessagesFailedTotal.WithLabelValues("retry-exhausted")
	before := testutil.ToFloat64(failed)

	calls := 0
	ok := process(context.Background(), zap.NewNop(), failingHandler(100, &calls),
		kafka.Message{Topic: "retry-exhausted", Offset: 9})

	assert.True(t, ok)
	assert.Equal(t, handleAttempts, calls)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestProcessLeavesMessageUncommittedOnCancel(t *testing.T) {
	fastRetries(t)
	failed := util.BrokerMessagesFailedTotal.WithLabelValues("retry-cancelled")
	before := testutil.ToFloat64(failed)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	handler := func(context.Context, kafka.Message) error {
		calls++
		cancel()
		return context.Canceled
	}

	ok := process(ctx, zap.NewNop(), handler, kafka.Message{Topic: "retry-cancelled"})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.Equal(t, before, testutil.ToFloat64(failed))
}
