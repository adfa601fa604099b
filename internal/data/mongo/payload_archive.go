// Package mongo provides the MongoDB-backed audit archive for raw provider
// payloads. The canonical normalized transactions live in PostgreSQL; the
// archive keeps the untouched external payload for dispute and audit trails.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// PayloadCollectionName is the name of the raw payload collection
	PayloadCollectionName = "provider_payloads"
)

// ArchivedPayload is one raw provider event as delivered by the webhook layer
type ArchivedPayload struct {
	ChannelID     string    `bson:"channel_id"`
	Provider      string    `bson:"provider"`
	ProviderTxnID string    `bson:"provider_txn_id"`
	Payload       []byte    `bson:"payload"`
	ArchivedAt    time.Time `bson:"archived_at"`
}

// PayloadArchive stores raw provider payloads for audit
type PayloadArchive struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewPayloadArchive creates a new MongoDB payload archive
func NewPayloadArchive(logger *slog.Logger, db *mongo.Database) *PayloadArchive {
	return &PayloadArchive{
		db:     db,
		logger: logger,
	}
}

// Archive stores the raw payload of one provider event. Re-archiving the
// same (channel, provider, provider txn id) is a no-op so ingestion retries
// stay idempotent on the audit side too.
func (a *PayloadArchive) Archive(ctx context.Context, payload *ArchivedPayload) error {
	collection := a.db.Collection(PayloadCollectionName)

	filter := bson.M{
		"channel_id":      payload.ChannelID,
		"provider":        payload.Provider,
		"provider_txn_id": payload.ProviderTxnID,
	}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		a.logger.Error("Failed to check for existing archived payload",
			"provider", payload.Provider,
			"provider_txn_id", payload.ProviderTxnID,
			"error", err)
		return fmt.Errorf("failed to check for existing archived payload: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := collection.InsertOne(ctx, payload); err != nil {
		a.logger.Error("Failed to archive provider payload",
			"provider", payload.Provider,
			"provider_txn_id", payload.ProviderTxnID,
			"error", err)
		return fmt.Errorf("failed to archive provider payload: %w", err)
	}

	return nil
}

// Get retrieves the archived payload for one provider event.
// Returns nil when nothing was archived for the id.
func (a *PayloadArchive) Get(ctx context.Context, channelID, provider, providerTxnID string) (*ArchivedPayload, error) {
	collection := a.db.Collection(PayloadCollectionName)

	filter := bson.M{
		"channel_id":      channelID,
		"provider":        provider,
		"provider_txn_id": providerTxnID,
	}
	var payload ArchivedPayload
	err := collection.FindOne(ctx, filter).Decode(&payload)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		a.logger.Error("Failed to get archived payload",
			"provider", provider,
			"provider_txn_id", providerTxnID,
			"error", err)
		return nil, fmt.Errorf("failed to get archived payload: %w", err)
	}

	return &payload, nil
}
