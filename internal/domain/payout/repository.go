package payout

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages persistence of creator payouts
type Repository interface {
	Create(ctx context.Context, p *Payout) error
	GetByID(ctx context.Context, channelID string, id uuid.UUID) (*Payout, error)
	Update(ctx context.Context, p *Payout) error

	// HasActiveHold reports whether the creator has any payout currently HELD
	HasActiveHold(ctx context.Context, channelID, creatorID string) (bool, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrPayoutNotFound indicates a missing payout
type ErrPayoutNotFound struct {
	PayoutID uuid.UUID
}

func (e ErrPayoutNotFound) Error() string {
	return "payout not found: " + e.PayoutID.String()
}

// Is implements errors.Is matching for ErrPayoutNotFound
func (e ErrPayoutNotFound) Is(target error) bool {
	t, ok := target.(ErrPayoutNotFound)
	if !ok {
		return false
	}
	if t.PayoutID == uuid.Nil {
		return true
	}
	return e.PayoutID == t.PayoutID
}
