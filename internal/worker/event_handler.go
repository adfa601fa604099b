package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streamcart/finance-ledger/internal/platform/messaging/producers"
)

// ProviderEventEnvelope is the message format on the provider event topic
type ProviderEventEnvelope struct {
	ChannelID string `json:"channel_id"`
	Provider  string `json:"provider"`
	Payload   string `json:"payload"`
}

// ProviderEventHandler handles incoming provider event messages from Kafka
type ProviderEventHandler struct {
	ingestor *PooledIngestor
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

// NewProviderEventHandler creates a new handler. The DLQ producer may be nil
// when the dead-letter topic is not configured.
func NewProviderEventHandler(logger *slog.Logger, ingestor *PooledIngestor, producer producers.DeadLetterPublisher) *ProviderEventHandler {
	return &ProviderEventHandler{
		ingestor: ingestor,
		producer: producer,
		logger:   logger,
	}
}

// HandleMessage processes one Kafka message. Malformed envelopes go to the
// DLQ and commit; ingestion failures are returned so the offset stays
// uncommitted and the message is retried.
func (h *ProviderEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var envelope ProviderEventEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return h.deadLetter(ctx, key, value, fmt.Sprintf("failed to unmarshal provider event envelope: %s", err.Error()), err)
	}
	if envelope.ChannelID == "" || envelope.Provider == "" || envelope.Payload == "" {
		err := fmt.Errorf("provider event envelope missing channel_id, provider, or payload")
		return h.deadLetter(ctx, key, value, err.Error(), err)
	}

	txnID, err := h.ingestor.Ingest(ctx, envelope.ChannelID, envelope.Provider, []byte(envelope.Payload))
	if err != nil {
		h.logger.Error("Failed to ingest provider event",
			"channel_id", envelope.ChannelID,
			"provider", envelope.Provider,
			"message_key", string(key),
			"error", err,
		)
		return fmt.Errorf("ingesting provider event failed: %w", err)
	}

	h.logger.Info("Ingested provider event from Kafka",
		"channel_id", envelope.ChannelID,
		"provider", envelope.Provider,
		"transaction_id", txnID.String(),
	)
	return nil // Success, commit offset
}

// deadLetter forwards a poison message to the DLQ. When that succeeds the
// offset is committed by returning nil; otherwise the original error is
// surfaced for a Kafka retry.
func (h *ProviderEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	h.logger.Error("Poison provider event message",
		"message_key", string(key),
		"reason", reason,
	)

	if h.producer != nil {
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
			h.logger.Error("Failed to publish poison message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.logger.Info("Published poison message to DLQ", "message_key", string(key), "reason", reason)
			return nil
		}
	}
	// Allow Kafka retries
	return fmt.Errorf("unprocessable provider event: %w", cause)
}
