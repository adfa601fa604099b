package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streamcart/finance-ledger/internal/data/mongo"
	"github.com/streamcart/finance-ledger/internal/domain/providertx"
)

// rawProviderEvent is the common envelope webhook handlers extract from
// provider deliveries before handing them to ingestion. Native type and
// status codes stay provider-specific and are normalized here.
type rawProviderEvent struct {
	TxnID     string    `json:"txn_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Fee       int64     `json:"fee"`
	Currency  string    `json:"currency"`
	OrderRef  string    `json:"order_ref"`
	Timestamp time.Time `json:"timestamp"`
}

// IngestionServiceImpl implements the IngestionService interface
type IngestionServiceImpl struct {
	transactions providertx.Repository
	archive      PayloadArchiver
	logger       *slog.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(logger *slog.Logger, transactions providertx.Repository, archive PayloadArchiver) IngestionService {
	return &IngestionServiceImpl{
		transactions: transactions,
		archive:      archive,
		logger:       logger,
	}
}

// IngestProviderTransaction normalizes one raw provider event and persists it.
// Re-ingesting an already-seen provider-native id returns the existing row's id.
func (s *IngestionServiceImpl) IngestProviderTransaction(ctx context.Context, channelID, provider string, rawPayload []byte) (uuid.UUID, error) {
	var event rawProviderEvent
	if err := json.Unmarshal(rawPayload, &event); err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse provider payload: %w", err)
	}
	if event.TxnID == "" {
		return uuid.Nil, fmt.Errorf("provider payload missing txn_id")
	}
	if event.Currency == "" {
		return uuid.Nil, fmt.Errorf("provider payload missing currency")
	}

	existing, err := s.transactions.GetByProviderTxnID(ctx, channelID, provider, event.TxnID)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		s.logger.Info("Provider transaction already ingested",
			"channel_id", channelID,
			"provider", provider,
			"provider_txn_id", event.TxnID,
		)
		return existing.ID, nil
	}

	occurredAt := event.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	txn := &providertx.Transaction{
		ID:              uuid.New(),
		ChannelID:       channelID,
		Provider:        provider,
		ProviderTxnID:   event.TxnID,
		Type:            normalizeType(provider, event.Type),
		Status:          normalizeStatus(provider, event.Status),
		Amount:          event.Amount,
		Fee:             event.Fee,
		Net:             event.Amount - event.Fee,
		Currency:        event.Currency,
		OrderRef:        event.OrderRef,
		TransactionDate: occurredAt,
		RawPayload:      rawPayload,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.transactions.Create(ctx, txn); err != nil {
		// Lost the insert race to a concurrent ingestion of the same event
		if errors.Is(err, providertx.ErrDuplicateTransaction{}) {
			winner, getErr := s.transactions.GetByProviderTxnID(ctx, channelID, provider, event.TxnID)
			if getErr != nil {
				return uuid.Nil, getErr
			}
			if winner != nil {
				return winner.ID, nil
			}
		}
		return uuid.Nil, err
	}

	if err := s.archive.Archive(ctx, &mongo.ArchivedPayload{
		ChannelID:     channelID,
		Provider:      provider,
		ProviderTxnID: event.TxnID,
		Payload:       rawPayload,
		ArchivedAt:    time.Now().UTC(),
	}); err != nil {
		// The canonical row is durable; audit archival failure must not fail ingestion
		s.logger.Error("Failed to archive raw provider payload",
			"provider", provider,
			"provider_txn_id", event.TxnID,
			"error", err)
	}

	s.logger.Info("Ingested provider transaction",
		"channel_id", channelID,
		"provider", provider,
		"provider_txn_id", event.TxnID,
		"type", txn.Type,
		"status", txn.Status,
		"net", txn.Net,
	)

	return txn.ID, nil
}

// GetArchivedPayload looks up the audit archive by provider-native id. The
// raw payload is what the provider delivered, byte for byte, which is what
// dispute handling needs.
func (s *IngestionServiceImpl) GetArchivedPayload(ctx context.Context, channelID, provider, providerTxnID string) (*mongo.ArchivedPayload, error) {
	return s.archive.Get(ctx, channelID, provider, providerTxnID)
}

// BulkIngest processes payloads independently; malformed records are logged
// and skipped so one bad event never sinks the batch.
func (s *IngestionServiceImpl) BulkIngest(ctx context.Context, channelID, provider string, rawPayloads [][]byte) (int, error) {
	ingested := 0
	for i, payload := range rawPayloads {
		if _, err := s.IngestProviderTransaction(ctx, channelID, provider, payload); err != nil {
			s.logger.Warn("Skipping malformed provider record in bulk ingest",
				"channel_id", channelID,
				"provider", provider,
				"index", i,
				"error", err)
			continue
		}
		ingested++
	}
	return ingested, nil
}
