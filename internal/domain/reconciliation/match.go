package reconciliation

import (
	"time"

	"github.com/google/uuid"
)

// MatchType distinguishes automatic matches from operator overrides
type MatchType string

const (
	MatchTypeAuto   MatchType = "AUTO"
	MatchTypeManual MatchType = "MANUAL"
)

// Match links a provider transaction to a ledger entry. Immutable once created.
type Match struct {
	ID            uuid.UUID `json:"id"`
	ChannelID     string    `json:"channel_id"`
	ProviderTxnID uuid.UUID `json:"provider_txn_id"`
	LedgerEntryID uuid.UUID `json:"ledger_entry_id"`
	Type          MatchType `json:"type"`
	Confidence    int       `json:"confidence"`
	Discrepancy   int64     `json:"discrepancy"`
	Notes         string    `json:"notes,omitempty"`
	MatchedAt     time.Time `json:"matched_at"`
}

// Summary reports the outcome of one auto-reconciliation pass
type Summary struct {
	Matched             int   `json:"matched"`
	Unmatched           int   `json:"unmatched"`
	Discrepancies       int   `json:"discrepancies"`
	TotalMatchedCents   int64 `json:"total_matched_cents"`
	TotalUnmatchedCents int64 `json:"total_unmatched_cents"`
}
