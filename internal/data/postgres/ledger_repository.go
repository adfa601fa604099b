// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the finance ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/ledger"
	"github.com/streamcart/finance-ledger/internal/platform/persistence"
)

const entryColumns = `id, channel_id, type, ref_type, ref_id, debit_account, credit_account,
		amount, currency, fx_rate, base_currency, base_amount, description, posted_at`

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing atomic operations
// across multiple repository calls
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new ledger entry. Entries are append-only: there is no
// update path for this table.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (id, channel_id, type, ref_type, ref_id, debit_account, credit_account,
			amount, currency, fx_rate, base_currency, base_amount, description, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.ChannelID,
		entry.Type,
		entry.RefType,
		entry.RefID,
		entry.DebitAccount,
		entry.CreditAccount,
		entry.Amount,
		entry.Currency,
		entry.FXRate,
		entry.BaseCurrency,
		entry.BaseAmount,
		entry.Description,
		entry.PostedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ledger entry", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByID retrieves a ledger entry by its ID
func (r *LedgerRepository) GetByID(ctx context.Context, channelID string, id uuid.UUID) (*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE channel_id = $1 AND id = $2
	`

	entry, err := r.scanEntry(r.querier.QueryRow(ctx, query, channelID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get ledger entry", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// GetByRef retrieves all entries referencing a business object
func (r *LedgerRepository) GetByRef(ctx context.Context, channelID string, refType ledger.RefType, refID string) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE channel_id = $1 AND ref_type = $2 AND ref_id = $3
		ORDER BY posted_at ASC
	`

	rows, err := r.querier.Query(ctx, query, channelID, refType, refID)
	if err != nil {
		r.logger.Error("Failed to get entries by ref", "ref_type", string(refType), "ref_id", refID, "error", err)
		return nil, fmt.Errorf("failed to get entries by ref: %w", err)
	}
	defer rows.Close()

	return r.collectEntries(rows)
}

// GetByTimeRange retrieves entries posted within [start, end]
func (r *LedgerRepository) GetByTimeRange(ctx context.Context, channelID string, start, end time.Time) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE channel_id = $1 AND posted_at >= $2 AND posted_at <= $3
		ORDER BY posted_at ASC
	`

	rows, err := r.querier.Query(ctx, query, channelID, start, end)
	if err != nil {
		r.logger.Error("Failed to get entries by time range", "error", err)
		return nil, fmt.Errorf("failed to get entries by time range: %w", err)
	}
	defer rows.Close()

	return r.collectEntries(rows)
}

// SumAccount returns raw debit and credit totals for an account. An empty
// currency matches all currencies.
func (r *LedgerRepository) SumAccount(ctx context.Context, channelID string, account ledger.Account, currency string) (*ledger.BalanceSums, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN debit_account = $2 THEN amount ELSE 0 END), 0) AS debits,
			COALESCE(SUM(CASE WHEN credit_account = $2 THEN amount ELSE 0 END), 0) AS credits
		FROM ledger_entries
		WHERE channel_id = $1 AND (debit_account = $2 OR credit_account = $2)
			AND ($3 = '' OR currency = $3)
	`

	var sums ledger.BalanceSums
	err := r.querier.QueryRow(ctx, query, channelID, account, currency).Scan(&sums.Debits, &sums.Credits)
	if err != nil {
		r.logger.Error("Failed to sum account", "account", string(account), "error", err)
		return nil, fmt.Errorf("failed to sum account: %w", err)
	}

	return &sums, nil
}

// SumAccountInRange returns raw debit and credit totals for an account within
// a posting-time window
func (r *LedgerRepository) SumAccountInRange(ctx context.Context, channelID string, account ledger.Account, start, end time.Time) (*ledger.BalanceSums, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN debit_account = $2 THEN amount ELSE 0 END), 0) AS debits,
			COALESCE(SUM(CASE WHEN credit_account = $2 THEN amount ELSE 0 END), 0) AS credits
		FROM ledger_entries
		WHERE channel_id = $1 AND (debit_account = $2 OR credit_account = $2)
			AND posted_at >= $3 AND posted_at <= $4
	`

	var sums ledger.BalanceSums
	err := r.querier.QueryRow(ctx, query, channelID, account, start, end).Scan(&sums.Debits, &sums.Credits)
	if err != nil {
		r.logger.Error("Failed to sum account in range", "account", string(account), "error", err)
		return nil, fmt.Errorf("failed to sum account in range: %w", err)
	}

	return &sums, nil
}

// SumAmountByType totals entry amounts of one entry type within a period
func (r *LedgerRepository) SumAmountByType(ctx context.Context, channelID string, entryType ledger.EntryType, start, end time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE channel_id = $1 AND type = $2 AND posted_at >= $3 AND posted_at <= $4
	`

	var total int64
	err := r.querier.QueryRow(ctx, query, channelID, entryType, start, end).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to sum amount by type", "type", string(entryType), "error", err)
		return 0, fmt.Errorf("failed to sum amount by type: %w", err)
	}

	return total, nil
}

// SumCashFlows aggregates cash movement by entry type within a period
func (r *LedgerRepository) SumCashFlows(ctx context.Context, channelID string, start, end time.Time) (*ledger.CashFlowSums, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN debit_account = 'CASH' THEN amount ELSE 0 END), 0) AS inflow,
			COALESCE(SUM(CASE WHEN credit_account = 'CASH' THEN amount ELSE 0 END), 0) AS outflow,
			COALESCE(SUM(CASE WHEN debit_account = 'CASH' AND type = 'SALE' THEN amount ELSE 0 END), 0) AS operating_inflow,
			COALESCE(SUM(CASE WHEN credit_account = 'CASH' AND type IN ('REFUND', 'FEE') THEN amount ELSE 0 END), 0) AS operating_outflow,
			COALESCE(SUM(CASE WHEN credit_account = 'CASH' AND type = 'PAYOUT' THEN amount ELSE 0 END), 0) AS financing_outflow
		FROM ledger_entries
		WHERE channel_id = $1 AND posted_at >= $2 AND posted_at <= $3
	`

	var sums ledger.CashFlowSums
	err := r.querier.QueryRow(ctx, query, channelID, start, end).Scan(
		&sums.Inflow,
		&sums.Outflow,
		&sums.OperatingInflow,
		&sums.OperatingOutflow,
		&sums.FinancingOutflow,
	)
	if err != nil {
		r.logger.Error("Failed to sum cash flows", "error", err)
		return nil, fmt.Errorf("failed to sum cash flows: %w", err)
	}

	return &sums, nil
}

// FindSaleByOrderRef returns the SALE entry referencing the given order, or
// nil when no such entry exists
func (r *LedgerRepository) FindSaleByOrderRef(ctx context.Context, channelID string, orderID string) (*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE channel_id = $1 AND type = 'SALE' AND ref_type = 'ORDER' AND ref_id = $2
		ORDER BY posted_at ASC
		LIMIT 1
	`

	entry, err := r.scanEntry(r.querier.QueryRow(ctx, query, channelID, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No sale entry references this order
		}
		r.logger.Error("Failed to find sale by order ref", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("failed to find sale by order ref: %w", err)
	}

	return entry, nil
}

// FindAmountCandidates returns entries posted inside the time window whose
// amount is strictly within tolerance of the target, ordered by posting time
func (r *LedgerRepository) FindAmountCandidates(ctx context.Context, channelID string, target int64, tolerance int64, center time.Time, window time.Duration) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE channel_id = $1 AND posted_at >= $2 AND posted_at <= $3 AND ABS(amount - $4) < $5
		ORDER BY posted_at ASC
	`

	rows, err := r.querier.Query(ctx, query, channelID, center.Add(-window), center.Add(window), target, tolerance)
	if err != nil {
		r.logger.Error("Failed to find amount candidates", "target", target, "error", err)
		return nil, fmt.Errorf("failed to find amount candidates: %w", err)
	}
	defer rows.Close()

	return r.collectEntries(rows)
}

func (r *LedgerRepository) scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var entry ledger.Entry
	err := row.Scan(
		&entry.ID,
		&entry.ChannelID,
		&entry.Type,
		&entry.RefType,
		&entry.RefID,
		&entry.DebitAccount,
		&entry.CreditAccount,
		&entry.Amount,
		&entry.Currency,
		&entry.FXRate,
		&entry.BaseCurrency,
		&entry.BaseAmount,
		&entry.Description,
		&entry.PostedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *LedgerRepository) collectEntries(rows pgx.Rows) ([]*ledger.Entry, error) {
	var entries []*ledger.Entry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}
