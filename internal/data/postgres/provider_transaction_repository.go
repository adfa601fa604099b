package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/streamcart/finance-ledger/internal/domain/providertx"
	"github.com/streamcart/finance-ledger/internal/platform/persistence"
)

const transactionColumns = `id, channel_id, provider, provider_txn_id, type, status, amount, fee, net,
		currency, order_ref, transaction_date, raw_payload, reconciled, reconciled_at, created_at`

// ProviderTransactionRepository implements providertx.Repository for PostgreSQL
type ProviderTransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewProviderTransactionRepository creates a new PostgreSQL provider transaction repository
func NewProviderTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) providertx.Repository {
	return &ProviderTransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *ProviderTransactionRepository) WithTx(tx pgx.Tx) providertx.Repository {
	return &ProviderTransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a transaction keyed on (channel, provider, provider txn id).
// The unique constraint on that triple is what makes re-ingestion safe.
func (r *ProviderTransactionRepository) Create(ctx context.Context, txn *providertx.Transaction) error {
	query := `
		INSERT INTO provider_transactions (id, channel_id, provider, provider_txn_id, type, status,
			amount, fee, net, currency, order_ref, transaction_date, raw_payload, reconciled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.ChannelID,
		txn.Provider,
		txn.ProviderTxnID,
		txn.Type,
		txn.Status,
		txn.Amount,
		txn.Fee,
		txn.Net,
		txn.Currency,
		txn.OrderRef,
		txn.TransactionDate,
		txn.RawPayload,
		txn.Reconciled,
		txn.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return providertx.ErrDuplicateTransaction{Provider: txn.Provider, ProviderTxnID: txn.ProviderTxnID}
		}
		r.logger.Error("Failed to create provider transaction",
			"provider", txn.Provider,
			"provider_txn_id", txn.ProviderTxnID,
			"error", err,
		)
		return fmt.Errorf("failed to create provider transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a provider transaction by its internal ID
func (r *ProviderTransactionRepository) GetByID(ctx context.Context, channelID string, id uuid.UUID) (*providertx.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM provider_transactions
		WHERE channel_id = $1 AND id = $2
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, channelID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, providertx.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("Failed to get provider transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get provider transaction: %w", err)
	}

	return txn, nil
}

// GetByProviderTxnID retrieves a transaction by its provider-native id.
// Returns nil when the external id was never ingested.
func (r *ProviderTransactionRepository) GetByProviderTxnID(ctx context.Context, channelID, provider, providerTxnID string) (*providertx.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM provider_transactions
		WHERE channel_id = $1 AND provider = $2 AND provider_txn_id = $3
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, channelID, provider, providerTxnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get provider transaction by provider txn id",
			"provider", provider,
			"provider_txn_id", providerTxnID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get provider transaction by provider txn id: %w", err)
	}

	return txn, nil
}

// ListUnreconciled returns unreconciled transactions, optionally bounded by
// transaction date. Zero times mean no bound.
func (r *ProviderTransactionRepository) ListUnreconciled(ctx context.Context, channelID string, start, end time.Time) ([]*providertx.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM provider_transactions
		WHERE channel_id = $1 AND reconciled = FALSE
			AND ($2::timestamptz IS NULL OR transaction_date >= $2)
			AND ($3::timestamptz IS NULL OR transaction_date <= $3)
		ORDER BY transaction_date ASC
	`

	var startArg, endArg interface{}
	if !start.IsZero() {
		startArg = start
	}
	if !end.IsZero() {
		endArg = end
	}

	rows, err := r.querier.Query(ctx, query, channelID, startArg, endArg)
	if err != nil {
		r.logger.Error("Failed to list unreconciled transactions", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("failed to list unreconciled transactions: %w", err)
	}
	defer rows.Close()

	var txns []*providertx.Transaction
	for rows.Next() {
		txn, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider transactions: %w", err)
	}

	return txns, nil
}

// MarkReconciled transitions the reconciled flag false to true. The WHERE
// clause makes the update conditional so two concurrent reconciliation
// passes cannot double-process the same transaction.
func (r *ProviderTransactionRepository) MarkReconciled(ctx context.Context, channelID string, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE provider_transactions
		SET reconciled = TRUE, reconciled_at = $3
		WHERE channel_id = $1 AND id = $2 AND reconciled = FALSE
	`

	result, err := r.querier.Exec(ctx, query, channelID, id, at)
	if err != nil {
		r.logger.Error("Failed to mark transaction reconciled", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark transaction reconciled: %w", err)
	}

	if result.RowsAffected() == 0 {
		return providertx.ErrAlreadyReconciled{ID: id}
	}

	return nil
}

func (r *ProviderTransactionRepository) scanTransaction(row pgx.Row) (*providertx.Transaction, error) {
	var txn providertx.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.ChannelID,
		&txn.Provider,
		&txn.ProviderTxnID,
		&txn.Type,
		&txn.Status,
		&txn.Amount,
		&txn.Fee,
		&txn.Net,
		&txn.Currency,
		&txn.OrderRef,
		&txn.TransactionDate,
		&txn.RawPayload,
		&txn.Reconciled,
		&txn.ReconciledAt,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
