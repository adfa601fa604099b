package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/creator"
	"github.com/streamcart/finance-ledger/internal/platform/persistence"
)

// CreatorRepository implements creator.Repository and creator.FraudScoreSource
// over the platform's replicated creator/order/fraud read models
type CreatorRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCreatorRepository creates a new PostgreSQL creator repository
func NewCreatorRepository(logger *slog.Logger, db *persistence.PostgresDB) *CreatorRepository {
	return &CreatorRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *CreatorRepository) WithTx(tx pgx.Tx) creator.Repository {
	return &CreatorRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves a creator by its ID
func (r *CreatorRepository) GetByID(ctx context.Context, channelID, creatorID string) (*creator.Creator, error) {
	query := `
		SELECT id, channel_id, display_name, commission_rate, bonus_rate,
			payout_provider, payout_recipient, total_commission, created_at
		FROM creators
		WHERE channel_id = $1 AND id = $2
	`

	var c creator.Creator
	err := r.querier.QueryRow(ctx, query, channelID, creatorID).Scan(
		&c.ID,
		&c.ChannelID,
		&c.DisplayName,
		&c.CommissionRate,
		&c.BonusRate,
		&c.PayoutProvider,
		&c.PayoutRecipient,
		&c.TotalCommission,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, creator.ErrCreatorNotFound{CreatorID: creatorID}
		}
		r.logger.Error("Failed to get creator", "creator_id", creatorID, "error", err)
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}

	return &c, nil
}

// ListEarningOrders returns the creator's orders in an earning-eligible
// status completed within the period
func (r *CreatorRepository) ListEarningOrders(ctx context.Context, channelID, creatorID string, start, end time.Time) ([]*creator.Order, error) {
	query := `
		SELECT id, channel_id, creator_id, status, total, currency, completed_at
		FROM orders
		WHERE channel_id = $1 AND creator_id = $2
			AND status IN ('COMPLETED', 'SHIPPED', 'DELIVERED')
			AND completed_at >= $3 AND completed_at <= $4
		ORDER BY completed_at ASC
	`

	rows, err := r.querier.Query(ctx, query, channelID, creatorID, start, end)
	if err != nil {
		r.logger.Error("Failed to list earning orders", "creator_id", creatorID, "error", err)
		return nil, fmt.Errorf("failed to list earning orders: %w", err)
	}
	defer rows.Close()

	var orders []*creator.Order
	for rows.Next() {
		var o creator.Order
		err := rows.Scan(&o.ID, &o.ChannelID, &o.CreatorID, &o.Status, &o.Total, &o.Currency, &o.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// IncrementTotalCommission adds to the creator's cumulative commission total
func (r *CreatorRepository) IncrementTotalCommission(ctx context.Context, channelID, creatorID string, amount int64) error {
	query := `
		UPDATE creators
		SET total_commission = total_commission + $3
		WHERE channel_id = $1 AND id = $2
	`

	result, err := r.querier.Exec(ctx, query, channelID, creatorID, amount)
	if err != nil {
		r.logger.Error("Failed to increment total commission", "creator_id", creatorID, "error", err)
		return fmt.Errorf("failed to increment total commission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return creator.ErrCreatorNotFound{CreatorID: creatorID}
	}

	return nil
}

// RecentRecords returns fraud-score records observed since the given time
func (r *CreatorRepository) RecentRecords(ctx context.Context, channelID, creatorID string, since time.Time) ([]*creator.FraudScoreRecord, error) {
	query := `
		SELECT channel_id, creator_id, level, recorded_at
		FROM fraud_score_records
		WHERE channel_id = $1 AND creator_id = $2 AND recorded_at >= $3
		ORDER BY recorded_at DESC
	`

	rows, err := r.querier.Query(ctx, query, channelID, creatorID, since)
	if err != nil {
		r.logger.Error("Failed to list fraud score records", "creator_id", creatorID, "error", err)
		return nil, fmt.Errorf("failed to list fraud score records: %w", err)
	}
	defer rows.Close()

	var records []*creator.FraudScoreRecord
	for rows.Next() {
		var rec creator.FraudScoreRecord
		err := rows.Scan(&rec.ChannelID, &rec.CreatorID, &rec.Level, &rec.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fraud score record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fraud score records: %w", err)
	}

	return records, nil
}
