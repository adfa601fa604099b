package payout

import (
	"time"

	"github.com/google/uuid"
)

// Status defines creator payout lifecycle states
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusHeld      Status = "HELD"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Payout tracks one disbursement of creator earnings. The status machine is
// PENDING <-> HELD, PENDING -> COMPLETED | FAILED. COMPLETED is terminal and
// the record is immutable once reached.
type Payout struct {
	ID            uuid.UUID  `json:"id"`
	ChannelID     string     `json:"channel_id"`
	CreatorID     string     `json:"creator_id"`
	Status        Status     `json:"status"`
	GrossAmount   int64      `json:"gross_amount"`
	FeeAmount     int64      `json:"fee_amount"`
	NetAmount     int64      `json:"net_amount"`
	Currency      string     `json:"currency"`
	Provider      string     `json:"provider"`
	PeriodStart   time.Time  `json:"period_start"`
	PeriodEnd     time.Time  `json:"period_end"`
	HoldReason    string     `json:"hold_reason,omitempty"`
	ProviderTxnID string     `json:"provider_txn_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// validTransitions pins the payout state machine
var validTransitions = map[Status][]Status{
	StatusPending: {StatusHeld, StatusCompleted, StatusFailed},
	StatusHeld:    {StatusPending},
	// COMPLETED and FAILED are terminal
}

// CanTransition reports whether moving to the target status is allowed
func (p *Payout) CanTransition(to Status) bool {
	for _, allowed := range validTransitions[p.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the payout to the target status, enforcing the machine
func (p *Payout) Transition(to Status) error {
	if !p.CanTransition(to) {
		return ErrInvalidTransition{PayoutID: p.ID, From: p.Status, To: to}
	}
	p.Status = to
	return nil
}

// ErrInvalidTransition indicates a disallowed payout status change
type ErrInvalidTransition struct {
	PayoutID uuid.UUID
	From     Status
	To       Status
}

func (e ErrInvalidTransition) Error() string {
	return "invalid payout transition " + string(e.From) + " -> " + string(e.To) + " for " + e.PayoutID.String()
}

// Is implements errors.Is matching for ErrInvalidTransition
func (e ErrInvalidTransition) Is(target error) bool {
	t, ok := target.(ErrInvalidTransition)
	if !ok {
		return false
	}
	if t.PayoutID == uuid.Nil {
		return true
	}
	return e.PayoutID == t.PayoutID
}
