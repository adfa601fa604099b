package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/idempotency"
	"github.com/streamcart/finance-ledger/internal/domain/ledger"
)

// postEntryScope is the idempotency scope for single-entry postings
const postEntryScope = "post_entry"

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	db          TxExecutor
	entries     ledger.Repository
	idempotency idempotency.Repository
	logger      *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(logger *slog.Logger, db TxExecutor, entries ledger.Repository, idem idempotency.Repository) LedgerService {
	return &LedgerServiceImpl{
		db:          db,
		entries:     entries,
		idempotency: idem,
		logger:      logger,
	}
}

// PostEntry validates and persists one ledger entry with optional idempotency
func (s *LedgerServiceImpl) PostEntry(ctx context.Context, channelID string, spec *ledger.EntrySpec, idempotencyKey string) (uuid.UUID, error) {
	entry, err := ledger.NewEntry(channelID, spec)
	if err != nil {
		return uuid.Nil, err
	}

	if idempotencyKey == "" {
		if err := s.entries.Create(ctx, entry); err != nil {
			return uuid.Nil, err
		}
		return entry.ID, nil
	}

	rec := &idempotency.Record{
		ChannelID:   channelID,
		Scope:       postEntryScope,
		Key:         idempotencyKey,
		RequestHash: hashSpec(spec),
	}
	existing, acquired, err := s.idempotency.Acquire(ctx, rec)
	if err != nil {
		return uuid.Nil, err
	}

	if !acquired {
		if existing.Status == idempotency.StatusCompleted {
			var storedID uuid.UUID
			if err := json.Unmarshal(existing.Result, &storedID); err != nil {
				return uuid.Nil, fmt.Errorf("failed to decode stored idempotency result: %w", err)
			}
			s.logger.Info("Returning stored result for idempotency key",
				"channel_id", channelID,
				"idempotency_key", idempotencyKey,
				"entry_id", storedID.String(),
			)
			return storedID, nil
		}
		// IN_PROGRESS, or a FAILED record another retry took over first.
		// Only the caller holding the record may execute.
		return uuid.Nil, idempotency.ErrInProgress{Scope: postEntryScope, Key: idempotencyKey}
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		if failErr := s.idempotency.Fail(ctx, channelID, postEntryScope, idempotencyKey); failErr != nil {
			s.logger.Error("Failed to mark idempotency record failed",
				"idempotency_key", idempotencyKey, "error", failErr)
		}
		return uuid.Nil, err
	}

	result, _ := json.Marshal(entry.ID)
	if err := s.idempotency.Complete(ctx, channelID, postEntryScope, idempotencyKey, result); err != nil {
		// The entry is durable; the stale record only blocks a later replay
		s.logger.Error("Failed to complete idempotency record",
			"idempotency_key", idempotencyKey, "error", err)
	}

	return entry.ID, nil
}

// PostSale records a paid order as up to three entries in one transaction
func (s *LedgerServiceImpl) PostSale(ctx context.Context, channelID, orderID string, grossCents, paymentFeeCents, creatorCommissionCents int64, currency string) ([]uuid.UUID, error) {
	net := grossCents - paymentFeeCents

	specs := []*ledger.EntrySpec{
		{
			Type:          ledger.EntryTypeSale,
			RefType:       ledger.RefTypeOrder,
			RefID:         orderID,
			DebitAccount:  ledger.AccountCash,
			CreditAccount: ledger.AccountRevenue,
			Amount:        net,
			Currency:      currency,
			Description:   "Sale revenue for order " + orderID,
		},
	}
	if paymentFeeCents > 0 {
		specs = append(specs, &ledger.EntrySpec{
			Type:          ledger.EntryTypeFee,
			RefType:       ledger.RefTypeOrder,
			RefID:         orderID,
			DebitAccount:  ledger.AccountFees,
			CreditAccount: ledger.AccountCash,
			Amount:        paymentFeeCents,
			Currency:      currency,
			Description:   "Payment processing fee for order " + orderID,
		})
	}
	if creatorCommissionCents > 0 {
		specs = append(specs, &ledger.EntrySpec{
			Type:          ledger.EntryTypeCommission,
			RefType:       ledger.RefTypeOrder,
			RefID:         orderID,
			DebitAccount:  ledger.AccountFees,
			CreditAccount: ledger.AccountPayableCreator,
			Amount:        creatorCommissionCents,
			Currency:      currency,
			Description:   "Creator commission for order " + orderID,
		})
	}

	return s.postAtomically(ctx, channelID, specs)
}

// PostRefund reverses revenue for a refunded order
func (s *LedgerServiceImpl) PostRefund(ctx context.Context, channelID, orderID string, refundCents int64, currency string) (uuid.UUID, error) {
	spec := &ledger.EntrySpec{
		Type:          ledger.EntryTypeRefund,
		RefType:       ledger.RefTypeOrder,
		RefID:         orderID,
		DebitAccount:  ledger.AccountRevenue,
		CreditAccount: ledger.AccountCash,
		Amount:        refundCents,
		Currency:      currency,
		Description:   "Refund for order " + orderID,
	}
	return s.PostEntry(ctx, channelID, spec, "")
}

// PostPayout reduces the creator liability and cash for a completed payout
func (s *LedgerServiceImpl) PostPayout(ctx context.Context, channelID, payoutID string, netCents, feeCents int64, currency string) ([]uuid.UUID, error) {
	return s.postAtomically(ctx, channelID, payoutSpecs(payoutID, netCents, feeCents, currency))
}

// PostPayoutInTx writes the payout entries through an already-open
// transaction so the caller can commit them together with the payout row
func (s *LedgerServiceImpl) PostPayoutInTx(ctx context.Context, tx pgx.Tx, channelID, payoutID string, netCents, feeCents int64, currency string) ([]uuid.UUID, error) {
	entries, err := buildEntries(channelID, payoutSpecs(payoutID, netCents, feeCents, currency))
	if err != nil {
		return nil, err
	}

	txRepo := s.entries.WithTx(tx)
	for _, entry := range entries {
		if err := txRepo.Create(ctx, entry); err != nil {
			return nil, err
		}
	}
	return entryIDs(entries), nil
}

// payoutSpecs builds the disbursement entry plus an optional fee entry
func payoutSpecs(payoutID string, netCents, feeCents int64, currency string) []*ledger.EntrySpec {
	specs := []*ledger.EntrySpec{
		{
			Type:          ledger.EntryTypePayout,
			RefType:       ledger.RefTypePayout,
			RefID:         payoutID,
			DebitAccount:  ledger.AccountPayableCreator,
			CreditAccount: ledger.AccountCash,
			Amount:        netCents,
			Currency:      currency,
			Description:   "Creator payout " + payoutID,
		},
	}
	if feeCents > 0 {
		specs = append(specs, &ledger.EntrySpec{
			Type:          ledger.EntryTypeFee,
			RefType:       ledger.RefTypePayout,
			RefID:         payoutID,
			DebitAccount:  ledger.AccountFees,
			CreditAccount: ledger.AccountCash,
			Amount:        feeCents,
			Currency:      currency,
			Description:   "Payout provider fee " + payoutID,
		})
	}
	return specs
}

// GetAccountBalance applies the account's sign convention to summed entries
func (s *LedgerServiceImpl) GetAccountBalance(ctx context.Context, channelID string, account ledger.Account, currency string) (int64, error) {
	sums, err := s.entries.SumAccount(ctx, channelID, account, currency)
	if err != nil {
		return 0, err
	}
	return account.Balance(sums.Debits, sums.Credits), nil
}

// GetEntriesForRef retrieves all entries referencing a business object
func (s *LedgerServiceImpl) GetEntriesForRef(ctx context.Context, channelID string, refType ledger.RefType, refID string) ([]*ledger.Entry, error) {
	return s.entries.GetByRef(ctx, channelID, refType, refID)
}

// GetEntriesInRange retrieves entries posted within [start, end]
func (s *LedgerServiceImpl) GetEntriesInRange(ctx context.Context, channelID string, start, end time.Time) ([]*ledger.Entry, error) {
	return s.entries.GetByTimeRange(ctx, channelID, start, end)
}

// postAtomically validates all specs up front and commits the resulting
// entries in a single store transaction so a composition can never be
// half-posted.
func (s *LedgerServiceImpl) postAtomically(ctx context.Context, channelID string, specs []*ledger.EntrySpec) ([]uuid.UUID, error) {
	entries, err := buildEntries(channelID, specs)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.entries.WithTx(tx)
		for _, entry := range entries {
			if err := txRepo.Create(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entryIDs(entries), nil
}

// buildEntries validates every spec before anything is written
func buildEntries(channelID string, specs []*ledger.EntrySpec) ([]*ledger.Entry, error) {
	entries := make([]*ledger.Entry, 0, len(specs))
	for _, spec := range specs {
		entry, err := ledger.NewEntry(channelID, spec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func entryIDs(entries []*ledger.Entry) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

// hashSpec produces a stable digest of the request for the idempotency record
func hashSpec(spec *ledger.EntrySpec) string {
	payload, _ := json.Marshal(spec)
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}
