package reconciliation

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository manages persistence of reconciliation matches
type Repository interface {
	Create(ctx context.Context, match *Match) error

	// ListDiscrepancies returns matches recorded with a non-zero discrepancy
	ListDiscrepancies(ctx context.Context, channelID string) ([]*Match, error)

	WithTx(tx pgx.Tx) Repository
}
