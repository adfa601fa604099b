package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher is what the API layer holds for async ingestion: raw
// provider payloads go onto the provider event topic keyed by channel and
// provider so one channel's events stay ordered.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks payloads the worker could not ingest. A nil
// implementation means dead-lettering is disabled for the deployment.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter abstracts the kafka-go writer so producers can be exercised
// without a broker.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
