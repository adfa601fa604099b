package consumers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/streamcart/finance-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaConsumer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.KafkaConfig{
		Brokers:            "localhost:9092",
		ProviderEventTopic: "provider-events",
		ConsumerGroup:      "finance-worker",
		MinBytes:           1 << 10,
		MaxBytes:           10 << 10,
		MaxWait:            500 * time.Millisecond,
	}

	consumer := NewKafkaConsumer(context.Background(), logger, cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, logger, consumer.logger)
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("nil reader closes cleanly", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
		require.NoError(t, consumer.Close())
	})
}
