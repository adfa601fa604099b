package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/idempotency"
	"github.com/streamcart/finance-ledger/internal/platform/persistence"
)

// IdempotencyRepository implements idempotency.Repository for PostgreSQL.
// The acquire relies on ON CONFLICT DO NOTHING over the (channel, scope, key)
// primary key, so it works across concurrent service instances.
type IdempotencyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIdempotencyRepository creates a new PostgreSQL idempotency repository
func NewIdempotencyRepository(logger *slog.Logger, db *persistence.PostgresDB) idempotency.Repository {
	return &IdempotencyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Acquire inserts an IN_PROGRESS record for (channel, scope, key). A FAILED
// record is taken over in place with a compare-and-set on the status; losing
// that race fails with idempotency.ErrInProgress. Any other existing record
// is returned with acquired=false.
func (r *IdempotencyRepository) Acquire(ctx context.Context, rec *idempotency.Record) (*idempotency.Record, bool, error) {
	insert := `
		INSERT INTO idempotency_records (channel_id, scope, key, request_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (channel_id, scope, key) DO NOTHING
	`

	now := time.Now().UTC()
	result, err := r.querier.Exec(ctx, insert, rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, idempotency.StatusInProgress, now)
	if err != nil {
		r.logger.Error("Failed to acquire idempotency record", "scope", rec.Scope, "key", rec.Key, "error", err)
		return nil, false, fmt.Errorf("failed to acquire idempotency record: %w", err)
	}

	if result.RowsAffected() > 0 {
		return nil, true, nil
	}

	existing, err := r.get(ctx, rec.ChannelID, rec.Scope, rec.Key)
	if err != nil {
		return nil, false, err
	}
	if existing.Status == idempotency.StatusFailed {
		return r.reacquire(ctx, rec)
	}
	return existing, false, nil
}

// reacquire flips a FAILED record back to IN_PROGRESS. The status predicate
// makes the update a mutex: of two concurrent retries only one sees
// RowsAffected()==1, the other lost the race.
func (r *IdempotencyRepository) reacquire(ctx context.Context, rec *idempotency.Record) (*idempotency.Record, bool, error) {
	reacquire := `
		UPDATE idempotency_records
		SET status = $4, updated_at = $5
		WHERE channel_id = $1 AND scope = $2 AND key = $3 AND status = $6
	`

	result, err := r.querier.Exec(ctx, reacquire, rec.ChannelID, rec.Scope, rec.Key, idempotency.StatusInProgress, time.Now().UTC(), idempotency.StatusFailed)
	if err != nil {
		r.logger.Error("Failed to reacquire failed idempotency record", "scope", rec.Scope, "key", rec.Key, "error", err)
		return nil, false, fmt.Errorf("failed to reacquire idempotency record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, false, idempotency.ErrInProgress{Scope: rec.Scope, Key: rec.Key}
	}
	return nil, true, nil
}

// Complete stores the operation result and marks the record COMPLETED
func (r *IdempotencyRepository) Complete(ctx context.Context, channelID, scope, key string, resultPayload []byte) error {
	query := `
		UPDATE idempotency_records
		SET status = $4, result = $5, updated_at = $6
		WHERE channel_id = $1 AND scope = $2 AND key = $3
	`

	_, err := r.querier.Exec(ctx, query, channelID, scope, key, idempotency.StatusCompleted, resultPayload, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to complete idempotency record", "scope", scope, "key", key, "error", err)
		return fmt.Errorf("failed to complete idempotency record: %w", err)
	}

	return nil
}

// Fail marks the record FAILED so the caller may retry with the same key
func (r *IdempotencyRepository) Fail(ctx context.Context, channelID, scope, key string) error {
	query := `
		UPDATE idempotency_records
		SET status = $4, updated_at = $5
		WHERE channel_id = $1 AND scope = $2 AND key = $3
	`

	_, err := r.querier.Exec(ctx, query, channelID, scope, key, idempotency.StatusFailed, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to fail idempotency record", "scope", scope, "key", key, "error", err)
		return fmt.Errorf("failed to fail idempotency record: %w", err)
	}

	return nil
}

func (r *IdempotencyRepository) get(ctx context.Context, channelID, scope, key string) (*idempotency.Record, error) {
	query := `
		SELECT channel_id, scope, key, request_hash, result, status, created_at, updated_at
		FROM idempotency_records
		WHERE channel_id = $1 AND scope = $2 AND key = $3
	`

	var rec idempotency.Record
	err := r.querier.QueryRow(ctx, query, channelID, scope, key).Scan(
		&rec.ChannelID,
		&rec.Scope,
		&rec.Key,
		&rec.RequestHash,
		&rec.Result,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a race with a concurrent delete; treat as in progress
			return nil, idempotency.ErrInProgress{Scope: scope, Key: key}
		}
		r.logger.Error("Failed to get idempotency record", "scope", scope, "key", key, "error", err)
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	return &rec, nil
}
