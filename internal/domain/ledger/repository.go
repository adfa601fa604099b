package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BalanceSums holds the raw debit and credit totals for one account
type BalanceSums struct {
	Debits  int64
	Credits int64
}

// CashFlowSums holds per-category cash movement totals for a period
type CashFlowSums struct {
	Inflow           int64
	Outflow          int64
	OperatingInflow  int64
	OperatingOutflow int64
	FinancingOutflow int64
}

// Repository manages persistence of ledger entries
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, channelID string, id uuid.UUID) (*Entry, error)
	GetByRef(ctx context.Context, channelID string, refType RefType, refID string) ([]*Entry, error)
	GetByTimeRange(ctx context.Context, channelID string, start, end time.Time) ([]*Entry, error)

	// SumAccount returns raw debit and credit totals for an account.
	// An empty currency matches all currencies.
	SumAccount(ctx context.Context, channelID string, account Account, currency string) (*BalanceSums, error)
	SumAccountInRange(ctx context.Context, channelID string, account Account, start, end time.Time) (*BalanceSums, error)

	// SumAmountByType totals entry amounts of one entry type within a period
	SumAmountByType(ctx context.Context, channelID string, entryType EntryType, start, end time.Time) (int64, error)

	// SumCashFlows aggregates cash movement by entry type within a period
	SumCashFlows(ctx context.Context, channelID string, start, end time.Time) (*CashFlowSums, error)

	// FindSaleByOrderRef returns the SALE entry referencing the given order,
	// or nil when no such entry exists
	FindSaleByOrderRef(ctx context.Context, channelID string, orderID string) (*Entry, error)

	// FindAmountCandidates returns entries posted inside the time window whose
	// amount is within tolerance of the target, ordered by posting time
	FindAmountCandidates(ctx context.Context, channelID string, target int64, tolerance int64, center time.Time, window time.Duration) ([]*Entry, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates a missing ledger entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.EntryID.String()
}

// Is implements errors.Is matching for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
