package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/streamcart/finance-ledger/internal/data/mongo"
	"github.com/streamcart/finance-ledger/internal/domain/creator"
	"github.com/streamcart/finance-ledger/internal/domain/idempotency"
	"github.com/streamcart/finance-ledger/internal/domain/ledger"
	"github.com/streamcart/finance-ledger/internal/domain/payout"
	"github.com/streamcart/finance-ledger/internal/domain/providertx"
	"github.com/streamcart/finance-ledger/internal/domain/reconciliation"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Mock implementations of the service dependencies

// fakeTxExecutor runs the transactional function directly; the mocked
// repositories return themselves from WithTx so the nil tx is never touched.
// fnErr records the function's outcome: non-nil means the real executor
// would have rolled the transaction back.
type fakeTxExecutor struct {
	beginErr error
	fnErr    error
}

func (f *fakeTxExecutor) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.fnErr = fn(nil)
	return f.fnErr
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, channelID string, id uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, channelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) GetByRef(ctx context.Context, channelID string, refType ledger.RefType, refID string) ([]*ledger.Entry, error) {
	args := m.Called(ctx, channelID, refType, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) GetByTimeRange(ctx context.Context, channelID string, start, end time.Time) ([]*ledger.Entry, error) {
	args := m.Called(ctx, channelID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) SumAccount(ctx context.Context, channelID string, account ledger.Account, currency string) (*ledger.BalanceSums, error) {
	args := m.Called(ctx, channelID, account, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BalanceSums), args.Error(1)
}

func (m *MockLedgerRepository) SumAccountInRange(ctx context.Context, channelID string, account ledger.Account, start, end time.Time) (*ledger.BalanceSums, error) {
	args := m.Called(ctx, channelID, account, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BalanceSums), args.Error(1)
}

func (m *MockLedgerRepository) SumAmountByType(ctx context.Context, channelID string, entryType ledger.EntryType, start, end time.Time) (int64, error) {
	args := m.Called(ctx, channelID, entryType, start, end)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) SumCashFlows(ctx context.Context, channelID string, start, end time.Time) (*ledger.CashFlowSums, error) {
	args := m.Called(ctx, channelID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CashFlowSums), args.Error(1)
}

func (m *MockLedgerRepository) FindSaleByOrderRef(ctx context.Context, channelID string, orderID string) (*ledger.Entry, error) {
	args := m.Called(ctx, channelID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) FindAmountCandidates(ctx context.Context, channelID string, target int64, tolerance int64, center time.Time, window time.Duration) ([]*ledger.Entry, error) {
	args := m.Called(ctx, channelID, target, tolerance, center, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return m
}

type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) Acquire(ctx context.Context, rec *idempotency.Record) (*idempotency.Record, bool, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*idempotency.Record), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyRepository) Complete(ctx context.Context, channelID, scope, key string, result []byte) error {
	args := m.Called(ctx, channelID, scope, key, result)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) Fail(ctx context.Context, channelID, scope, key string) error {
	args := m.Called(ctx, channelID, scope, key)
	return args.Error(0)
}

type MockProviderTxnRepository struct {
	mock.Mock
}

func (m *MockProviderTxnRepository) Create(ctx context.Context, txn *providertx.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockProviderTxnRepository) GetByID(ctx context.Context, channelID string, id uuid.UUID) (*providertx.Transaction, error) {
	args := m.Called(ctx, channelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providertx.Transaction), args.Error(1)
}

func (m *MockProviderTxnRepository) GetByProviderTxnID(ctx context.Context, channelID, provider, providerTxnID string) (*providertx.Transaction, error) {
	args := m.Called(ctx, channelID, provider, providerTxnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providertx.Transaction), args.Error(1)
}

func (m *MockProviderTxnRepository) ListUnreconciled(ctx context.Context, channelID string, start, end time.Time) ([]*providertx.Transaction, error) {
	args := m.Called(ctx, channelID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*providertx.Transaction), args.Error(1)
}

func (m *MockProviderTxnRepository) MarkReconciled(ctx context.Context, channelID string, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, channelID, id, at)
	return args.Error(0)
}

func (m *MockProviderTxnRepository) WithTx(tx pgx.Tx) providertx.Repository {
	return m
}

type MockReconciliationRepository struct {
	mock.Mock
}

func (m *MockReconciliationRepository) Create(ctx context.Context, match *reconciliation.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockReconciliationRepository) ListDiscrepancies(ctx context.Context, channelID string) ([]*reconciliation.Match, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reconciliation.Match), args.Error(1)
}

func (m *MockReconciliationRepository) WithTx(tx pgx.Tx) reconciliation.Repository {
	return m
}

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPayoutRepository) GetByID(ctx context.Context, channelID string, id uuid.UUID) (*payout.Payout, error) {
	args := m.Called(ctx, channelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Payout), args.Error(1)
}

func (m *MockPayoutRepository) Update(ctx context.Context, p *payout.Payout) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPayoutRepository) HasActiveHold(ctx context.Context, channelID, creatorID string) (bool, error) {
	args := m.Called(ctx, channelID, creatorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepository) WithTx(tx pgx.Tx) payout.Repository {
	return m
}

type MockCreatorRepository struct {
	mock.Mock
}

func (m *MockCreatorRepository) GetByID(ctx context.Context, channelID, creatorID string) (*creator.Creator, error) {
	args := m.Called(ctx, channelID, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*creator.Creator), args.Error(1)
}

func (m *MockCreatorRepository) ListEarningOrders(ctx context.Context, channelID, creatorID string, start, end time.Time) ([]*creator.Order, error) {
	args := m.Called(ctx, channelID, creatorID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*creator.Order), args.Error(1)
}

func (m *MockCreatorRepository) IncrementTotalCommission(ctx context.Context, channelID, creatorID string, amount int64) error {
	args := m.Called(ctx, channelID, creatorID, amount)
	return args.Error(0)
}

func (m *MockCreatorRepository) WithTx(tx pgx.Tx) creator.Repository {
	return m
}

type MockFraudScoreSource struct {
	mock.Mock
}

func (m *MockFraudScoreSource) RecentRecords(ctx context.Context, channelID, creatorID string, since time.Time) ([]*creator.FraudScoreRecord, error) {
	args := m.Called(ctx, channelID, creatorID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*creator.FraudScoreRecord), args.Error(1)
}

type MockPayoutAdapter struct {
	mock.Mock
}

func (m *MockPayoutAdapter) Submit(ctx context.Context, recipient string, amount int64, currency string) (string, error) {
	args := m.Called(ctx, recipient, amount, currency)
	return args.String(0), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) PostEntry(ctx context.Context, channelID string, spec *ledger.EntrySpec, idempotencyKey string) (uuid.UUID, error) {
	args := m.Called(ctx, channelID, spec, idempotencyKey)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedgerService) PostSale(ctx context.Context, channelID, orderID string, grossCents, paymentFeeCents, creatorCommissionCents int64, currency string) ([]uuid.UUID, error) {
	args := m.Called(ctx, channelID, orderID, grossCents, paymentFeeCents, creatorCommissionCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockLedgerService) PostRefund(ctx context.Context, channelID, orderID string, refundCents int64, currency string) (uuid.UUID, error) {
	args := m.Called(ctx, channelID, orderID, refundCents, currency)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedgerService) PostPayout(ctx context.Context, channelID, payoutID string, netCents, feeCents int64, currency string) ([]uuid.UUID, error) {
	args := m.Called(ctx, channelID, payoutID, netCents, feeCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockLedgerService) PostPayoutInTx(ctx context.Context, tx pgx.Tx, channelID, payoutID string, netCents, feeCents int64, currency string) ([]uuid.UUID, error) {
	args := m.Called(ctx, tx, channelID, payoutID, netCents, feeCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockLedgerService) GetAccountBalance(ctx context.Context, channelID string, account ledger.Account, currency string) (int64, error) {
	args := m.Called(ctx, channelID, account, currency)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) GetEntriesForRef(ctx context.Context, channelID string, refType ledger.RefType, refID string) ([]*ledger.Entry, error) {
	args := m.Called(ctx, channelID, refType, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerService) GetEntriesInRange(ctx context.Context, channelID string, start, end time.Time) ([]*ledger.Entry, error) {
	args := m.Called(ctx, channelID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

type MockPayloadArchiver struct {
	mock.Mock
}

func (m *MockPayloadArchiver) Archive(ctx context.Context, payload *mongo.ArchivedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockPayloadArchiver) Get(ctx context.Context, channelID, provider, providerTxnID string) (*mongo.ArchivedPayload, error) {
	args := m.Called(ctx, channelID, provider, providerTxnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.ArchivedPayload), args.Error(1)
}
