package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/ledger"
	"github.com/streamcart/finance-ledger/internal/domain/providertx"
	"github.com/streamcart/finance-ledger/internal/domain/reconciliation"
)

const (
	// matchTolerance is the maximum amount distance, in minor units, at which
	// a provider transaction still matches a ledger entry
	matchTolerance int64 = 100

	// matchWindow bounds how far from the transaction date a candidate entry
	// may have been posted
	matchWindow = 24 * time.Hour
)

// ReconciliationServiceImpl implements the ReconciliationService interface
type ReconciliationServiceImpl struct {
	db           TxExecutor
	entries      ledger.Repository
	transactions providertx.Repository
	matches      reconciliation.Repository
	logger       *slog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(logger *slog.Logger, db TxExecutor, entries ledger.Repository, transactions providertx.Repository, matches reconciliation.Repository) ReconciliationService {
	return &ReconciliationServiceImpl{
		db:           db,
		entries:      entries,
		transactions: transactions,
		matches:      matches,
		logger:       logger,
	}
}

// AutoReconcile runs one matching pass over the channel's unreconciled
// transactions. Each transaction is first matched against the SALE entry
// referencing its order; absent that, against the earliest entry posted
// within the window whose amount is inside the tolerance.
func (s *ReconciliationServiceImpl) AutoReconcile(ctx context.Context, channelID string, start, end time.Time) (*reconciliation.Summary, error) {
	unreconciled, err := s.transactions.ListUnreconciled(ctx, channelID, start, end)
	if err != nil {
		return nil, err
	}

	summary := &reconciliation.Summary{}
	for _, txn := range unreconciled {
		candidate, err := s.findCandidate(ctx, txn)
		if err != nil {
			return nil, err
		}

		if candidate == nil {
			summary.Unmatched++
			summary.TotalUnmatchedCents += txn.Net
			continue
		}

		discrepancy := txn.Net - candidate.Amount
		if discrepancy < 0 {
			discrepancy = -discrepancy
		}
		if discrepancy >= matchTolerance {
			summary.Unmatched++
			summary.TotalUnmatchedCents += txn.Net
			continue
		}

		confidence := 100
		if discrepancy > 0 {
			confidence = 95
		}

		recorded, err := s.recordMatch(ctx, txn, &reconciliation.Match{
			ID:            uuid.New(),
			ChannelID:     channelID,
			ProviderTxnID: txn.ID,
			LedgerEntryID: candidate.ID,
			Type:          reconciliation.MatchTypeAuto,
			Confidence:    confidence,
			Discrepancy:   discrepancy,
			MatchedAt:     time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		if !recorded {
			// Another pass reconciled this transaction first
			continue
		}

		summary.Matched++
		summary.TotalMatchedCents += txn.Net
		if discrepancy > 0 {
			summary.Discrepancies++
		}
	}

	s.logger.Info("Auto-reconciliation pass finished",
		"channel_id", channelID,
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
		"discrepancies", summary.Discrepancies,
	)

	return summary, nil
}

// ManualMatch records an operator override with confidence 100 regardless of
// the discrepancy size
func (s *ReconciliationServiceImpl) ManualMatch(ctx context.Context, channelID string, providerTxnID, ledgerEntryID uuid.UUID, notes string) (*reconciliation.Match, error) {
	txn, err := s.transactions.GetByID(ctx, channelID, providerTxnID)
	if err != nil {
		return nil, err
	}
	entry, err := s.entries.GetByID(ctx, channelID, ledgerEntryID)
	if err != nil {
		return nil, err
	}

	discrepancy := txn.Net - entry.Amount
	if discrepancy < 0 {
		discrepancy = -discrepancy
	}

	match := &reconciliation.Match{
		ID:            uuid.New(),
		ChannelID:     channelID,
		ProviderTxnID: txn.ID,
		LedgerEntryID: entry.ID,
		Type:          reconciliation.MatchTypeManual,
		Confidence:    100,
		Discrepancy:   discrepancy,
		Notes:         notes,
		MatchedAt:     time.Now().UTC(),
	}

	recorded, err := s.recordMatch(ctx, txn, match)
	if err != nil {
		return nil, err
	}
	if !recorded {
		return nil, providertx.ErrAlreadyReconciled{ID: txn.ID}
	}

	s.logger.Info("Manual reconciliation match recorded",
		"channel_id", channelID,
		"provider_txn_id", providerTxnID.String(),
		"ledger_entry_id", ledgerEntryID.String(),
		"discrepancy", discrepancy,
	)

	return match, nil
}

// GetUnmatchedTransactions lists transactions no pass has reconciled yet
func (s *ReconciliationServiceImpl) GetUnmatchedTransactions(ctx context.Context, channelID string) ([]*providertx.Transaction, error) {
	return s.transactions.ListUnreconciled(ctx, channelID, time.Time{}, time.Time{})
}

// GetDiscrepancies lists matches recorded with a non-zero discrepancy
func (s *ReconciliationServiceImpl) GetDiscrepancies(ctx context.Context, channelID string) ([]*reconciliation.Match, error) {
	return s.matches.ListDiscrepancies(ctx, channelID)
}

// findCandidate resolves the ledger entry a transaction should be checked
// against: the SALE entry for its order reference when present, otherwise the
// earliest amount-window candidate around the transaction date.
func (s *ReconciliationServiceImpl) findCandidate(ctx context.Context, txn *providertx.Transaction) (*ledger.Entry, error) {
	if txn.OrderRef != "" {
		entry, err := s.entries.FindSaleByOrderRef(ctx, txn.ChannelID, txn.OrderRef)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return entry, nil
		}
	}

	candidates, err := s.entries.FindAmountCandidates(ctx, txn.ChannelID, txn.Net, matchTolerance, txn.TransactionDate, matchWindow)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[0], nil
}

// recordMatch inserts the match and flips the transaction's reconciled flag
// in one store transaction. Returns false when the conditional update lost,
// meaning another pass already reconciled the transaction.
func (s *ReconciliationServiceImpl) recordMatch(ctx context.Context, txn *providertx.Transaction, match *reconciliation.Match) (bool, error) {
	var lost bool
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.transactions.WithTx(tx).MarkReconciled(ctx, txn.ChannelID, txn.ID, match.MatchedAt); err != nil {
			if errors.Is(err, providertx.ErrAlreadyReconciled{}) {
				lost = true
				return err
			}
			return err
		}
		return s.matches.WithTx(tx).Create(ctx, match)
	})
	if err != nil {
		if lost {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
