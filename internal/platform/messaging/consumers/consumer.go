// Package consumers reads provider events off Kafka for the ingestion
// worker. Offsets commit only after the handler succeeds, so a crashed
// worker replays uncommitted events instead of dropping them; ingestion is
// idempotent on (channel, provider, txn id), which makes the replay safe.
package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/streamcart/finance-ledger/internal/config"
)

// fetchBackoff paces retries when the broker is unreachable
const fetchBackoff = time.Second

// MessageHandler processes one fetched message. A non-nil error leaves the
// offset uncommitted.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer is the subscription surface the worker binary depends on
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaConsumer implements Consumer over a kafka-go group reader
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger: logger,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.ProviderEventTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe starts the consume loop in its own goroutine and returns. The
// loop runs until ctx is canceled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("Consuming provider events",
		"topic", topic,
		"group_id", groupID,
	)
	go c.run(ctx, handler)
	return nil
}

func (c *KafkaConsumer) run(ctx context.Context, handler MessageHandler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Consumer stopping", "reason", ctx.Err())
				return
			}
			c.logger.Error("Fetching message failed", "error", err)
			time.Sleep(fetchBackoff)
			continue
		}
		c.deliver(ctx, msg, handler)
	}
}

// deliver hands one message to the handler and commits on success. Handler
// failures skip the commit so the event is redelivered; the handler itself
// decides whether to dead-letter first.
func (c *KafkaConsumer) deliver(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		c.logger.Error("Provider event not processed, offset left uncommitted",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Committing offset failed",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return
	}
	c.logger.Debug("Provider event processed",
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)
}

func (c *KafkaConsumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
