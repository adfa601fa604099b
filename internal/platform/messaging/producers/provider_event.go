package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/streamcart/finance-ledger/internal/config"
)

// ProviderEventProducer publishes raw provider payloads onto the provider
// event topic for asynchronous ingestion by the worker
type ProviderEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewProviderEventProducer creates the producer and ensures the topic exists
func NewProviderEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ProviderEventProducer, error) {
	if cfg.ProviderEventTopic == "" {
		return nil, fmt.Errorf("kafka provider event topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for provider event producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.ProviderEventTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("ensuring provider event topic %s: %w", cfg.ProviderEventTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ProviderEventTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.ProviderEventTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.ProviderEventTopic, "count", len(messages))
			}
		},
	}

	return &ProviderEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ProviderEventTopic,
	}, nil
}

func (p *ProviderEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for provider event producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish provider event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via provider event producer: %w", p.topic, err)
	}

	p.logger.Debug("Published provider event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ProviderEventProducer) Close() error {
	p.logger.Info("Closing provider event Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
