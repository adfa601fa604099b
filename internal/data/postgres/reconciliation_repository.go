package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/reconciliation"
	"github.com/streamcart/finance-ledger/internal/platform/persistence"
)

// ReconciliationRepository implements reconciliation.Repository for PostgreSQL
type ReconciliationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReconciliationRepository creates a new PostgreSQL reconciliation repository
func NewReconciliationRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.Repository {
	return &ReconciliationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *ReconciliationRepository) WithTx(tx pgx.Tx) reconciliation.Repository {
	return &ReconciliationRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a reconciliation match. Matches are immutable once created.
func (r *ReconciliationRepository) Create(ctx context.Context, match *reconciliation.Match) error {
	query := `
		INSERT INTO reconciliation_matches (id, channel_id, provider_txn_id, ledger_entry_id,
			type, confidence, discrepancy, notes, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		match.ID,
		match.ChannelID,
		match.ProviderTxnID,
		match.LedgerEntryID,
		match.Type,
		match.Confidence,
		match.Discrepancy,
		match.Notes,
		match.MatchedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create reconciliation match",
			"provider_txn_id", match.ProviderTxnID.String(),
			"ledger_entry_id", match.LedgerEntryID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create reconciliation match: %w", err)
	}

	return nil
}

// ListDiscrepancies returns matches recorded with a non-zero discrepancy
func (r *ReconciliationRepository) ListDiscrepancies(ctx context.Context, channelID string) ([]*reconciliation.Match, error) {
	query := `
		SELECT id, channel_id, provider_txn_id, ledger_entry_id, type, confidence, discrepancy, notes, matched_at
		FROM reconciliation_matches
		WHERE channel_id = $1 AND discrepancy > 0
		ORDER BY matched_at DESC
	`

	rows, err := r.querier.Query(ctx, query, channelID)
	if err != nil {
		r.logger.Error("Failed to list discrepancies", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("failed to list discrepancies: %w", err)
	}
	defer rows.Close()

	var matches []*reconciliation.Match
	for rows.Next() {
		var m reconciliation.Match
		err := rows.Scan(
			&m.ID,
			&m.ChannelID,
			&m.ProviderTxnID,
			&m.LedgerEntryID,
			&m.Type,
			&m.Confidence,
			&m.Discrepancy,
			&m.Notes,
			&m.MatchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation match: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reconciliation matches: %w", err)
	}

	return matches, nil
}
