package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/payout"
	"github.com/streamcart/finance-ledger/internal/platform/persistence"
)

const payoutColumns = `id, channel_id, creator_id, status, gross_amount, fee_amount, net_amount,
		currency, provider, period_start, period_end, hold_reason, provider_txn_id, created_at, processed_at`

// PayoutRepository implements payout.Repository for PostgreSQL
type PayoutRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPayoutRepository creates a new PostgreSQL payout repository
func NewPayoutRepository(logger *slog.Logger, db *persistence.PostgresDB) payout.Repository {
	return &PayoutRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *PayoutRepository) WithTx(tx pgx.Tx) payout.Repository {
	return &PayoutRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new creator payout
func (r *PayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	query := `
		INSERT INTO creator_payouts (id, channel_id, creator_id, status, gross_amount, fee_amount, net_amount,
			currency, provider, period_start, period_end, hold_reason, provider_txn_id, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.ChannelID,
		p.CreatorID,
		p.Status,
		p.GrossAmount,
		p.FeeAmount,
		p.NetAmount,
		p.Currency,
		p.Provider,
		p.PeriodStart,
		p.PeriodEnd,
		p.HoldReason,
		p.ProviderTxnID,
		p.CreatedAt,
		p.ProcessedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payout", "payout_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create payout: %w", err)
	}

	return nil
}

// GetByID retrieves a payout by its ID
func (r *PayoutRepository) GetByID(ctx context.Context, channelID string, id uuid.UUID) (*payout.Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM creator_payouts
		WHERE channel_id = $1 AND id = $2
	`

	var p payout.Payout
	err := r.querier.QueryRow(ctx, query, channelID, id).Scan(
		&p.ID,
		&p.ChannelID,
		&p.CreatorID,
		&p.Status,
		&p.GrossAmount,
		&p.FeeAmount,
		&p.NetAmount,
		&p.Currency,
		&p.Provider,
		&p.PeriodStart,
		&p.PeriodEnd,
		&p.HoldReason,
		&p.ProviderTxnID,
		&p.CreatedAt,
		&p.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payout.ErrPayoutNotFound{PayoutID: id}
		}
		r.logger.Error("Failed to get payout", "payout_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}

	return &p, nil
}

// Update persists payout status and processing fields. COMPLETED rows are
// immutable, enforced here with a status guard on the previous row state.
func (r *PayoutRepository) Update(ctx context.Context, p *payout.Payout) error {
	query := `
		UPDATE creator_payouts
		SET status = $3, hold_reason = $4, provider_txn_id = $5, processed_at = $6
		WHERE channel_id = $1 AND id = $2 AND status <> 'COMPLETED'
	`

	result, err := r.querier.Exec(ctx, query,
		p.ChannelID,
		p.ID,
		p.Status,
		p.HoldReason,
		p.ProviderTxnID,
		p.ProcessedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update payout", "payout_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to update payout: %w", err)
	}

	if result.RowsAffected() == 0 {
		return payout.ErrPayoutNotFound{PayoutID: p.ID}
	}

	return nil
}

// HasActiveHold reports whether the creator has any payout currently HELD
func (r *PayoutRepository) HasActiveHold(ctx context.Context, channelID, creatorID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM creator_payouts
			WHERE channel_id = $1 AND creator_id = $2 AND status = 'HELD'
		)
	`

	var held bool
	err := r.querier.QueryRow(ctx, query, channelID, creatorID).Scan(&held)
	if err != nil {
		r.logger.Error("Failed to check active hold", "creator_id", creatorID, "error", err)
		return false, fmt.Errorf("failed to check active hold: %w", err)
	}

	return held, nil
}
