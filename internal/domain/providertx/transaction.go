package providertx

import (
	"time"

	"github.com/google/uuid"
)

// Type is the canonical transaction type space all providers map into
type Type string

const (
	TypePayment Type = "PAYMENT"
	TypeRefund  Type = "REFUND"
	TypeFee     Type = "FEE"
	TypePayout  Type = "PAYOUT"
)

// Status is the canonical transaction status space
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusPending   Status = "PENDING"
	StatusFailed    Status = "FAILED"
	StatusReversed  Status = "REVERSED"
)

// Transaction is the normalized record of one external provider event.
// It is created once per event; only the reconciled flag and timestamp are
// mutated afterwards, and only ever false to true.
type Transaction struct {
	ID              uuid.UUID  `json:"id"`
	ChannelID       string     `json:"channel_id"`
	Provider        string     `json:"provider"`
	ProviderTxnID   string     `json:"provider_txn_id"`
	Type            Type       `json:"type"`
	Status          Status     `json:"status"`
	Amount          int64      `json:"amount"`
	Fee             int64      `json:"fee"`
	Net             int64      `json:"net"`
	Currency        string     `json:"currency"`
	OrderRef        string     `json:"order_ref,omitempty"`
	TransactionDate time.Time  `json:"transaction_date"`
	RawPayload      []byte     `json:"-"`
	Reconciled      bool       `json:"reconciled"`
	ReconciledAt    *time.Time `json:"reconciled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
