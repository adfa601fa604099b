// Package service implements the business operations of the finance ledger:
// double-entry posting, provider transaction ingestion, auto-reconciliation,
// creator payouts, and derived financial reports.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/data/mongo"
	"github.com/streamcart/finance-ledger/internal/domain/ledger"
	"github.com/streamcart/finance-ledger/internal/domain/payout"
	"github.com/streamcart/finance-ledger/internal/domain/providertx"
	"github.com/streamcart/finance-ledger/internal/domain/reconciliation"
)

// TxExecutor runs a function inside one store transaction, rolling back when
// the function returns an error. Satisfied by persistence.PostgresDB.
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PayloadArchiver stores raw provider payloads for audit. Satisfied by the
// MongoDB payload archive.
type PayloadArchiver interface {
	Archive(ctx context.Context, payload *mongo.ArchivedPayload) error

	// Get returns the archived payload for one provider event, nil when
	// nothing was archived under the id
	Get(ctx context.Context, channelID, provider, providerTxnID string) (*mongo.ArchivedPayload, error)
}

// LedgerService posts double-entry records and answers balance queries
type LedgerService interface {
	// PostEntry validates and persists one ledger entry. When idempotencyKey
	// is non-empty a COMPLETED record for the same key returns the stored
	// entry id without re-inserting; an IN_PROGRESS record fails fast with
	// idempotency.ErrInProgress.
	PostEntry(ctx context.Context, channelID string, spec *ledger.EntrySpec, idempotencyKey string) (uuid.UUID, error)

	// PostSale records a paid order as up to three entries inside one store
	// transaction: net revenue into cash, the payment fee, and the creator
	// commission liability.
	PostSale(ctx context.Context, channelID, orderID string, grossCents, paymentFeeCents, creatorCommissionCents int64, currency string) ([]uuid.UUID, error)

	// PostRefund reverses revenue for a refunded order
	PostRefund(ctx context.Context, channelID, orderID string, refundCents int64, currency string) (uuid.UUID, error)

	// PostPayout reduces the creator liability and cash for a completed
	// payout, plus an optional fee entry, inside one store transaction
	PostPayout(ctx context.Context, channelID, payoutID string, netCents, feeCents int64, currency string) ([]uuid.UUID, error)

	// PostPayoutInTx writes the same entries as PostPayout through an
	// already-open transaction, so the payout status change and its ledger
	// entries commit or roll back together
	PostPayoutInTx(ctx context.Context, tx pgx.Tx, channelID, payoutID string, netCents, feeCents int64, currency string) ([]uuid.UUID, error)

	// GetAccountBalance applies the account's sign convention to the summed
	// debit and credit entries. An empty currency matches all currencies.
	GetAccountBalance(ctx context.Context, channelID string, account ledger.Account, currency string) (int64, error)

	GetEntriesForRef(ctx context.Context, channelID string, refType ledger.RefType, refID string) ([]*ledger.Entry, error)
	GetEntriesInRange(ctx context.Context, channelID string, start, end time.Time) ([]*ledger.Entry, error)
}

// IngestionService normalizes heterogeneous provider payloads into canonical
// provider transactions
type IngestionService interface {
	// IngestProviderTransaction normalizes and persists one raw provider
	// event. Re-ingesting the same provider-native id returns the id of the
	// existing row.
	IngestProviderTransaction(ctx context.Context, channelID, provider string, rawPayload []byte) (uuid.UUID, error)

	// BulkIngest processes payloads independently and returns the number
	// ingested. Malformed records are logged and skipped.
	BulkIngest(ctx context.Context, channelID, provider string, rawPayloads [][]byte) (int, error)

	// GetArchivedPayload returns the raw payload archived for one provider
	// event, nil when nothing was archived under the id
	GetArchivedPayload(ctx context.Context, channelID, provider, providerTxnID string) (*mongo.ArchivedPayload, error)
}

// ReconciliationService matches ingested transactions to ledger entries
type ReconciliationService interface {
	// AutoReconcile runs one matching pass over the channel's unreconciled
	// transactions. Zero start/end mean an unbounded range.
	AutoReconcile(ctx context.Context, channelID string, start, end time.Time) (*reconciliation.Summary, error)

	// ManualMatch records an operator override with confidence 100 regardless
	// of the discrepancy size
	ManualMatch(ctx context.Context, channelID string, providerTxnID, ledgerEntryID uuid.UUID, notes string) (*reconciliation.Match, error)

	GetUnmatchedTransactions(ctx context.Context, channelID string) ([]*providertx.Transaction, error)
	GetDiscrepancies(ctx context.Context, channelID string) ([]*reconciliation.Match, error)
}

// Earnings summarizes what a creator earned over a period. Currency is taken
// from the period's orders and defaults to USD when the period is empty.
type Earnings struct {
	CreatorID   string `json:"creator_id"`
	OrderCount  int    `json:"order_count"`
	TotalSales  int64  `json:"total_sales"`
	Commission  int64  `json:"commission"`
	Bonus       int64  `json:"bonus"`
	TotalEarned int64  `json:"total_earned"`
	Currency    string `json:"currency"`
}

// BatchResult reports a partial-failure-tolerant batch outcome
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// PayoutService computes creator earnings and moves payouts through their
// lifecycle
type PayoutService interface {
	CalculateCreatorEarnings(ctx context.Context, channelID, creatorID string, periodStart, periodEnd time.Time) (*Earnings, error)

	// CreatePayout persists a PENDING payout for the creator's earnings in
	// the period. Fails with payout.ErrActiveHold or payout.ErrNoEarnings.
	CreatePayout(ctx context.Context, channelID, creatorID string, periodStart, periodEnd time.Time) (*payout.Payout, error)

	// ExecutePayout dispatches a PENDING payout through the provider adapter.
	// The fraud gate may transition it to HELD instead, returning
	// payout.ErrFraudHold without calling any provider. A terminal provider
	// rejection marks the payout FAILED; transient failures leave it PENDING.
	ExecutePayout(ctx context.Context, channelID string, payoutID uuid.UUID) (*payout.Payout, error)

	// BatchExecutePayouts executes sequentially and continues past failures
	BatchExecutePayouts(ctx context.Context, channelID string, payoutIDs []uuid.UUID) (*BatchResult, error)

	HoldPayout(ctx context.Context, channelID string, payoutID uuid.UUID, reason string) (*payout.Payout, error)
	ReleasePayout(ctx context.Context, channelID string, payoutID uuid.UUID) (*payout.Payout, error)
}

// ProfitAndLoss is the derived P&L view over a period. Amounts are integer
// minor units; margins are ratios in [0, 1].
type ProfitAndLoss struct {
	ChannelID   string    `json:"channel_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Revenue     int64     `json:"revenue"`
	COGS        int64     `json:"cogs"`
	Fees        int64     `json:"fees"`
	Refunds     int64     `json:"refunds"`
	GrossProfit int64     `json:"gross_profit"`
	NetProfit   int64     `json:"net_profit"`
	GrossMargin float64   `json:"gross_margin"`
	NetMargin   float64   `json:"net_margin"`
}

// BalanceSheet is the derived balance-sheet view. Equity is a plug figure:
// assets minus liabilities, not cross-checked against retained earnings.
type BalanceSheet struct {
	ChannelID       string `json:"channel_id"`
	Cash            int64  `json:"cash"`
	Receivable      int64  `json:"receivable"`
	Reserves        int64  `json:"reserves"`
	Assets          int64  `json:"assets"`
	PayableCreator  int64  `json:"payable_creator"`
	PayableSupplier int64  `json:"payable_supplier"`
	Liabilities     int64  `json:"liabilities"`
	Equity          int64  `json:"equity"`
}

// CashFlow is the derived cash-flow view over a period
type CashFlow struct {
	ChannelID        string    `json:"channel_id"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	Inflow           int64     `json:"inflow"`
	Outflow          int64     `json:"outflow"`
	Net              int64     `json:"net"`
	OperatingInflow  int64     `json:"operating_inflow"`
	OperatingOutflow int64     `json:"operating_outflow"`
	FinancingOutflow int64     `json:"financing_outflow"`
}

// ReportingService derives financial views purely from ledger entries
type ReportingService interface {
	GetProfitAndLoss(ctx context.Context, channelID string, start, end time.Time) (*ProfitAndLoss, error)
	GetBalanceSheet(ctx context.Context, channelID string) (*BalanceSheet, error)
	GetCashFlow(ctx context.Context, channelID string, start, end time.Time) (*CashFlow, error)
}
