package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/streamcart/finance-ledger/internal/domain/ledger"
)

// ReportingServiceImpl implements the ReportingService interface.
// All reports are derived purely from ledger entries; nothing is stored.
type ReportingServiceImpl struct {
	entries ledger.Repository
	logger  *slog.Logger
}

// NewReportingService creates a new reporting service
func NewReportingService(logger *slog.Logger, entries ledger.Repository) ReportingService {
	return &ReportingServiceImpl{
		entries: entries,
		logger:  logger,
	}
}

// GetProfitAndLoss derives the P&L view for a period
func (s *ReportingServiceImpl) GetProfitAndLoss(ctx context.Context, channelID string, start, end time.Time) (*ProfitAndLoss, error) {
	revenueSums, err := s.entries.SumAccountInRange(ctx, channelID, ledger.AccountRevenue, start, end)
	if err != nil {
		return nil, err
	}
	cogsSums, err := s.entries.SumAccountInRange(ctx, channelID, ledger.AccountCOGS, start, end)
	if err != nil {
		return nil, err
	}
	feeSums, err := s.entries.SumAccountInRange(ctx, channelID, ledger.AccountFees, start, end)
	if err != nil {
		return nil, err
	}
	refunds, err := s.entries.SumAmountByType(ctx, channelID, ledger.EntryTypeRefund, start, end)
	if err != nil {
		return nil, err
	}

	revenue := revenueSums.Credits
	cogs := cogsSums.Debits
	fees := feeSums.Debits

	grossProfit := revenue - cogs
	netProfit := grossProfit - fees - refunds

	var grossMargin, netMargin float64
	if revenue != 0 {
		grossMargin = float64(grossProfit) / float64(revenue)
		netMargin = float64(netProfit) / float64(revenue)
	}

	return &ProfitAndLoss{
		ChannelID:   channelID,
		PeriodStart: start,
		PeriodEnd:   end,
		Revenue:     revenue,
		COGS:        cogs,
		Fees:        fees,
		Refunds:     refunds,
		GrossProfit: grossProfit,
		NetProfit:   netProfit,
		GrossMargin: grossMargin,
		NetMargin:   netMargin,
	}, nil
}

// GetBalanceSheet derives point-in-time balances with the account sign
// convention applied. Equity is the plug figure assets minus liabilities.
func (s *ReportingServiceImpl) GetBalanceSheet(ctx context.Context, channelID string) (*BalanceSheet, error) {
	balance := func(account ledger.Account) (int64, error) {
		sums, err := s.entries.SumAccount(ctx, channelID, account, "")
		if err != nil {
			return 0, err
		}
		return account.Balance(sums.Debits, sums.Credits), nil
	}

	cash, err := balance(ledger.AccountCash)
	if err != nil {
		return nil, err
	}
	receivable, err := balance(ledger.AccountReceivable)
	if err != nil {
		return nil, err
	}
	reserves, err := balance(ledger.AccountReserves)
	if err != nil {
		return nil, err
	}
	payableCreator, err := balance(ledger.AccountPayableCreator)
	if err != nil {
		return nil, err
	}
	payableSupplier, err := balance(ledger.AccountPayableSupplier)
	if err != nil {
		return nil, err
	}

	assets := cash + receivable + reserves
	liabilities := payableCreator + payableSupplier

	return &BalanceSheet{
		ChannelID:       channelID,
		Cash:            cash,
		Receivable:      receivable,
		Reserves:        reserves,
		Assets:          assets,
		PayableCreator:  payableCreator,
		PayableSupplier: payableSupplier,
		Liabilities:     liabilities,
		Equity:          assets - liabilities,
	}, nil
}

// GetCashFlow derives cash movement for a period, split into operating and
// financing categories by entry type
func (s *ReportingServiceImpl) GetCashFlow(ctx context.Context, channelID string, start, end time.Time) (*CashFlow, error) {
	sums, err := s.entries.SumCashFlows(ctx, channelID, start, end)
	if err != nil {
		return nil, err
	}

	return &CashFlow{
		ChannelID:        channelID,
		PeriodStart:      start,
		PeriodEnd:        end,
		Inflow:           sums.Inflow,
		Outflow:          sums.Outflow,
		Net:              sums.Inflow - sums.Outflow,
		OperatingInflow:  sums.OperatingInflow,
		OperatingOutflow: sums.OperatingOutflow,
		FinancingOutflow: sums.FinancingOutflow,
	}, nil
}
