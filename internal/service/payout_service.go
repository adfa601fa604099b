package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/domain/creator"
	"github.com/streamcart/finance-ledger/internal/domain/payout"
	"github.com/streamcart/finance-ledger/internal/platform/payoutproviders"
)

const (
	// providerFeeRate is the flat payout provider fee charged on gross earnings
	providerFeeRate = 0.01

	// fraudLookback is how far back elevated risk records count toward a hold
	fraudLookback = 30 * 24 * time.Hour

	// fraudHoldThreshold is the count of elevated records above which a payout
	// attempt is held instead of dispatched
	fraudHoldThreshold = 3
)

// PayoutServiceImpl implements the PayoutService interface
type PayoutServiceImpl struct {
	db        TxExecutor
	payouts   payout.Repository
	creators  creator.Repository
	fraud     creator.FraudScoreSource
	providers *payoutproviders.Registry
	ledger    LedgerService
	logger    *slog.Logger
}

// NewPayoutService creates a new payout service
func NewPayoutService(logger *slog.Logger, db TxExecutor, payouts payout.Repository, creators creator.Repository, fraud creator.FraudScoreSource, providers *payoutproviders.Registry, ledgerSvc LedgerService) PayoutService {
	return &PayoutServiceImpl{
		db:        db,
		payouts:   payouts,
		creators:  creators,
		fraud:     fraud,
		providers: providers,
		ledger:    ledgerSvc,
		logger:    logger,
	}
}

// CalculateCreatorEarnings sums the creator's earning-eligible orders in the
// period and applies the commission and bonus rates
func (s *PayoutServiceImpl) CalculateCreatorEarnings(ctx context.Context, channelID, creatorID string, periodStart, periodEnd time.Time) (*Earnings, error) {
	c, err := s.creators.GetByID(ctx, channelID, creatorID)
	if err != nil {
		return nil, err
	}

	orders, err := s.creators.ListEarningOrders(ctx, channelID, creatorID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	var totalSales int64
	currency := "USD"
	for i, order := range orders {
		totalSales += order.Total
		if i == 0 {
			currency = order.Currency
		}
	}

	commission := int64(math.Round(float64(totalSales) * c.CommissionRate))
	bonus := int64(math.Round(float64(totalSales) * c.BonusRate))

	return &Earnings{
		CreatorID:   creatorID,
		OrderCount:  len(orders),
		TotalSales:  totalSales,
		Commission:  commission,
		Bonus:       bonus,
		TotalEarned: commission + bonus,
		Currency:    currency,
	}, nil
}

// CreatePayout persists a PENDING payout for the creator's earnings in the period
func (s *PayoutServiceImpl) CreatePayout(ctx context.Context, channelID, creatorID string, periodStart, periodEnd time.Time) (*payout.Payout, error) {
	held, err := s.payouts.HasActiveHold(ctx, channelID, creatorID)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, payout.ErrActiveHold{CreatorID: creatorID}
	}

	c, err := s.creators.GetByID(ctx, channelID, creatorID)
	if err != nil {
		return nil, err
	}

	earnings, err := s.CalculateCreatorEarnings(ctx, channelID, creatorID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if earnings.TotalEarned <= 0 {
		return nil, payout.ErrNoEarnings{CreatorID: creatorID}
	}

	gross := earnings.TotalEarned
	fee := int64(math.Round(float64(gross) * providerFeeRate))

	p := &payout.Payout{
		ID:          uuid.New(),
		ChannelID:   channelID,
		CreatorID:   creatorID,
		Status:      payout.StatusPending,
		GrossAmount: gross,
		FeeAmount:   fee,
		NetAmount:   gross - fee,
		Currency:    earnings.Currency,
		Provider:    c.PayoutProvider,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.payouts.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Created payout",
		"channel_id", channelID,
		"creator_id", creatorID,
		"payout_id", p.ID.String(),
		"gross", p.GrossAmount,
		"net", p.NetAmount,
	)

	return p, nil
}

// ExecutePayout dispatches a PENDING payout through the provider adapter.
// The fraud gate runs first and can transition the payout to HELD without
// any adapter call. A terminal provider rejection moves the payout to
// FAILED; transient provider failures leave it PENDING and retryable.
func (s *PayoutServiceImpl) ExecutePayout(ctx context.Context, channelID string, payoutID uuid.UUID) (*payout.Payout, error) {
	p, err := s.payouts.GetByID(ctx, channelID, payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != payout.StatusPending {
		return nil, payout.ErrInvalidTransition{PayoutID: p.ID, From: p.Status, To: payout.StatusCompleted}
	}

	heldReason, err := s.fraudHoldReason(ctx, channelID, p.CreatorID)
	if err != nil {
		return nil, err
	}
	if heldReason != "" {
		if err := p.Transition(payout.StatusHeld); err != nil {
			return nil, err
		}
		p.HoldReason = heldReason
		if err := s.payouts.Update(ctx, p); err != nil {
			return nil, err
		}
		s.logger.Warn("Payout held by fraud policy",
			"channel_id", channelID,
			"payout_id", p.ID.String(),
			"creator_id", p.CreatorID,
			"reason", heldReason,
		)
		return nil, payout.ErrFraudHold{CreatorID: p.CreatorID, Reason: heldReason}
	}

	c, err := s.creators.GetByID(ctx, channelID, p.CreatorID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.providers.Get(p.Provider)
	if err != nil {
		return nil, err
	}

	providerTxnID, err := adapter.Submit(ctx, c.PayoutRecipient, p.NetAmount, p.Currency)
	if err != nil {
		var provErr payoutproviders.ErrProvider
		if errors.As(err, &provErr) && provErr.Terminal {
			return nil, s.failPayout(ctx, channelID, p, err)
		}
		// Transient failure; the payout stays PENDING and retryable
		return nil, err
	}

	now := time.Now().UTC()
	p.ProviderTxnID = providerTxnID
	p.ProcessedAt = &now
	if err := p.Transition(payout.StatusCompleted); err != nil {
		return nil, err
	}

	// The status change and the ledger entries commit together; a posting
	// failure rolls the row back to PENDING
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.payouts.WithTx(tx).Update(ctx, p); err != nil {
			return err
		}
		_, err := s.ledger.PostPayoutInTx(ctx, tx, channelID, p.ID.String(), p.NetAmount, p.FeeAmount, p.Currency)
		return err
	})
	if err != nil {
		// The transfer already went out. The row stays PENDING; the provider
		// txn id in this log line is the handle for manual repair.
		s.logger.Error("Failed to record completed payout",
			"channel_id", channelID,
			"payout_id", p.ID.String(),
			"provider_txn_id", providerTxnID,
			"error", err)
		return nil, fmt.Errorf("recording completed payout %s: %w", p.ID.String(), err)
	}

	if err := s.creators.IncrementTotalCommission(ctx, channelID, p.CreatorID, p.GrossAmount); err != nil {
		s.logger.Error("Failed to increment creator cumulative commission",
			"creator_id", p.CreatorID, "error", err)
	}

	s.logger.Info("Payout completed",
		"channel_id", channelID,
		"payout_id", p.ID.String(),
		"creator_id", p.CreatorID,
		"provider", p.Provider,
		"provider_txn_id", providerTxnID,
		"net", p.NetAmount,
	)

	return p, nil
}

// BatchExecutePayouts executes payouts sequentially and continues past failures
func (s *PayoutServiceImpl) BatchExecutePayouts(ctx context.Context, channelID string, payoutIDs []uuid.UUID) (*BatchResult, error) {
	result := &BatchResult{}
	for _, id := range payoutIDs {
		if _, err := s.ExecutePayout(ctx, channelID, id); err != nil {
			s.logger.Warn("Payout execution failed in batch",
				"channel_id", channelID,
				"payout_id", id.String(),
				"error", err)
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// HoldPayout moves a PENDING payout to HELD with an operator reason
func (s *PayoutServiceImpl) HoldPayout(ctx context.Context, channelID string, payoutID uuid.UUID, reason string) (*payout.Payout, error) {
	p, err := s.payouts.GetByID(ctx, channelID, payoutID)
	if err != nil {
		return nil, err
	}
	if err := p.Transition(payout.StatusHeld); err != nil {
		return nil, err
	}
	p.HoldReason = reason
	if err := s.payouts.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReleasePayout moves a HELD payout back to PENDING and clears the hold reason
func (s *PayoutServiceImpl) ReleasePayout(ctx context.Context, channelID string, payoutID uuid.UUID) (*payout.Payout, error) {
	p, err := s.payouts.GetByID(ctx, channelID, payoutID)
	if err != nil {
		return nil, err
	}
	if err := p.Transition(payout.StatusPending); err != nil {
		return nil, err
	}
	p.HoldReason = ""
	if err := s.payouts.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// failPayout moves a payout the provider rejected terminally to FAILED and
// returns the provider error for the caller
func (s *PayoutServiceImpl) failPayout(ctx context.Context, channelID string, p *payout.Payout, cause error) error {
	if err := p.Transition(payout.StatusFailed); err != nil {
		return err
	}
	if err := s.payouts.Update(ctx, p); err != nil {
		s.logger.Error("Failed to mark payout FAILED",
			"channel_id", channelID,
			"payout_id", p.ID.String(),
			"error", err)
		return err
	}
	s.logger.Warn("Payout rejected terminally by provider",
		"channel_id", channelID,
		"payout_id", p.ID.String(),
		"creator_id", p.CreatorID,
		"provider", p.Provider,
		"error", cause)
	return cause
}

// fraudHoldReason returns a non-empty reason when the creator has more than
// fraudHoldThreshold elevated risk records inside the lookback window
func (s *PayoutServiceImpl) fraudHoldReason(ctx context.Context, channelID, creatorID string) (string, error) {
	since := time.Now().UTC().Add(-fraudLookback)
	records, err := s.fraud.RecentRecords(ctx, channelID, creatorID, since)
	if err != nil {
		return "", err
	}

	elevated := 0
	for _, rec := range records {
		if rec.IsElevated() {
			elevated++
		}
	}
	if elevated > fraudHoldThreshold {
		return fmt.Sprintf("%d elevated fraud risk records in the last 30 days", elevated), nil
	}
	return "", nil
}
