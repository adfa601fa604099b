package providertx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages persistence of normalized provider transactions
type Repository interface {
	// Create inserts a transaction keyed on (channel, provider, provider txn id).
	// Returns ErrDuplicateTransaction when the external id was already ingested.
	Create(ctx context.Context, txn *Transaction) error

	GetByID(ctx context.Context, channelID string, id uuid.UUID) (*Transaction, error)
	GetByProviderTxnID(ctx context.Context, channelID, provider, providerTxnID string) (*Transaction, error)

	// ListUnreconciled returns unreconciled transactions, optionally bounded
	// by transaction date. Zero times mean no bound.
	ListUnreconciled(ctx context.Context, channelID string, start, end time.Time) ([]*Transaction, error)

	// MarkReconciled transitions the reconciled flag false to true. Returns
	// ErrAlreadyReconciled when another pass won the conditional update.
	MarkReconciled(ctx context.Context, channelID string, id uuid.UUID, at time.Time) error

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing provider transaction
type ErrTransactionNotFound struct {
	ID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "provider transaction not found: " + e.ID.String()
}

// Is implements errors.Is matching for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateTransaction indicates the provider-native id was already ingested
type ErrDuplicateTransaction struct {
	Provider      string
	ProviderTxnID string
}

func (e ErrDuplicateTransaction) Error() string {
	return "provider transaction already ingested: " + e.Provider + "/" + e.ProviderTxnID
}

// Is implements errors.Is matching for ErrDuplicateTransaction
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	if t.Provider == "" && t.ProviderTxnID == "" {
		return true
	}
	return e.Provider == t.Provider && e.ProviderTxnID == t.ProviderTxnID
}

// ErrAlreadyReconciled indicates the conditional reconciled update found no row
type ErrAlreadyReconciled struct {
	ID uuid.UUID
}

func (e ErrAlreadyReconciled) Error() string {
	return "provider transaction already reconciled: " + e.ID.String()
}

// Is implements errors.Is matching for ErrAlreadyReconciled
func (e ErrAlreadyReconciled) Is(target error) bool {
	t, ok := target.(ErrAlreadyReconciled)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
