package creator

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository reads creators and their orders, and tracks cumulative commission
type Repository interface {
	GetByID(ctx context.Context, channelID, creatorID string) (*Creator, error)

	// ListEarningOrders returns the creator's orders in an earning-eligible
	// status completed within the period
	ListEarningOrders(ctx context.Context, channelID, creatorID string, start, end time.Time) ([]*Order, error)

	// IncrementTotalCommission adds to the creator's cumulative commission total
	IncrementTotalCommission(ctx context.Context, channelID, creatorID string, amount int64) error

	WithTx(tx pgx.Tx) Repository
}

// FraudScoreSource exposes recent risk records for a creator
type FraudScoreSource interface {
	RecentRecords(ctx context.Context, channelID, creatorID string, since time.Time) ([]*FraudScoreRecord, error)
}

// ErrCreatorNotFound indicates a missing creator
type ErrCreatorNotFound struct {
	CreatorID string
}

func (e ErrCreatorNotFound) Error() string {
	return "creator not found: " + e.CreatorID
}

// Is implements errors.Is matching for ErrCreatorNotFound
func (e ErrCreatorNotFound) Is(target error) bool {
	t, ok := target.(ErrCreatorNotFound)
	if !ok {
		return false
	}
	if t.CreatorID == "" {
		return true
	}
	return e.CreatorID == t.CreatorID
}
