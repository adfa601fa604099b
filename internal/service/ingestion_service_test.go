package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streamcart/finance-ledger/internal/data/mongo"
	"github.com/streamcart/finance-ledger/internal/domain/providertx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const stripeChargePayload = `{
	"txn_id": "ch_3NxYz",
	"type": "charge",
	"status": "succeeded",
	"amount": 10000,
	"fee": 300,
	"currency": "USD",
	"order_ref": "o-1001",
	"timestamp": "2025-06-15T12:00:00Z"
}`

func TestIngestionService_IngestProviderTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and persists a new event", func(t *testing.T) {
		transactions := new(MockProviderTxnRepository)
		archive := new(MockPayloadArchiver)
		svc := NewIngestionService(newTestLogger(), transactions, archive)

		transactions.On("GetByProviderTxnID", ctx, "ch1", "stripe", "ch_3NxYz").Return(nil, nil)

		var created *providertx.Transaction
		transactions.On("Create", ctx, mock.AnythingOfType("*providertx.Transaction")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*providertx.Transaction) }).
			Return(nil)
		archive.On("Archive", ctx, mock.AnythingOfType("*mongo.ArchivedPayload")).Return(nil)

		id, err := svc.IngestProviderTransaction(ctx, "ch1", "stripe", []byte(stripeChargePayload))
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, created.ID, id)
		assert.Equal(t, providertx.TypePayment, created.Type, "stripe charge normalizes to PAYMENT")
		assert.Equal(t, providertx.StatusCompleted, created.Status, "stripe succeeded normalizes to COMPLETED")
		assert.Equal(t, int64(9700), created.Net, "net is amount minus fee")
		assert.Equal(t, "o-1001", created.OrderRef)
		assert.Equal(t, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), created.TransactionDate)
		transactions.AssertExpectations(t)
		archive.AssertExpectations(t)
	})

	t.Run("re-ingesting returns the existing row id", func(t *testing.T) {
		transactions := new(MockProviderTxnRepository)
		archive := new(MockPayloadArchiver)
		svc := NewIngestionService(newTestLogger(), transactions, archive)

		existing := &providertx.Transaction{ID: uuid.New(), ProviderTxnID: "ch_3NxYz"}
		transactions.On("GetByProviderTxnID", ctx, "ch1", "stripe", "ch_3NxYz").Return(existing, nil)

		id, err := svc.IngestProviderTransaction(ctx, "ch1", "stripe", []byte(stripeChargePayload))
		require.NoError(t, err)
		assert.Equal(t, existing.ID, id)
		transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("malformed payload", func(t *testing.T) {
		transactions := new(MockProviderTxnRepository)
		svc := NewIngestionService(newTestLogger(), transactions, new(MockPayloadArchiver))

		id, err := svc.IngestProviderTransaction(ctx, "ch1", "stripe", []byte(`{not json`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse provider payload")
		assert.Equal(t, uuid.Nil, id)
		transactions.AssertNotCalled(t, "GetByProviderTxnID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing txn_id", func(t *testing.T) {
		svc := NewIngestionService(newTestLogger(), new(MockProviderTxnRepository), new(MockPayloadArchiver))

		id, err := svc.IngestProviderTransaction(ctx, "ch1", "stripe", []byte(`{"currency":"USD"}`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing txn_id")
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("missing currency", func(t *testing.T) {
		svc := NewIngestionService(newTestLogger(), new(MockProviderTxnRepository), new(MockPayloadArchiver))

		id, err := svc.IngestProviderTransaction(ctx, "ch1", "stripe", []byte(`{"txn_id":"ch_1"}`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing currency")
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("lost insert race returns the winner's id", func(t *testing.T) {
		transactions := new(MockProviderTxnRepository)
		svc := NewIngestionService(newTestLogger(), transactions, new(MockPayloadArchiver))

		winner := &providertx.Transaction{ID: uuid.New(), ProviderTxnID: "ch_3NxYz"}
		transactions.On("GetByProviderTxnID", ctx, "ch1", "stripe", "ch_3NxYz").Return(nil, nil).Once()
		transactions.On("Create", ctx, mock.AnythingOfType("*providertx.Transaction")).
			Return(providertx.ErrDuplicateTransaction{Provider: "stripe", ProviderTxnID: "ch_3NxYz"})
		transactions.On("GetByProviderTxnID", ctx, "ch1", "stripe", "ch_3NxYz").Return(winner, nil).Once()

		id, err := svc.IngestProviderTransaction(ctx, "ch1", "stripe", []byte(stripeChargePayload))
		require.NoError(t, err)
		assert.Equal(t, winner.ID, id)
		transactions.AssertExpectations(t)
	})

	t.Run("archive failure does not fail ingestion", func(t *testing.T) {
		transactions := new(MockProviderTxnRepository)
		archive := new(MockPayloadArchiver)
		svc := NewIngestionService(newTestLogger(), transactions, archive)

		transactions.On("GetByProviderTxnID", ctx, "ch1", "stripe", "ch_3NxYz").Return(nil, nil)
		transactions.On("Create", ctx, mock.AnythingOfType("*providertx.Transaction")).Return(nil)
		archive.On("Archive", ctx, mock.AnythingOfType("*mongo.ArchivedPayload")).
			Return(errors.New("mongo unavailable"))

		id, err := svc.IngestProviderTransaction(ctx, "ch1", "stripe", []byte(stripeChargePayload))
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
	})

	t.Run("unknown native codes fall back to defaults", func(t *testing.T) {
		transactions := new(MockProviderTxnRepository)
		archive := new(MockPayloadArchiver)
		svc := NewIngestionService(newTestLogger(), transactions, archive)

		payload := []byte(`{"txn_id":"x-1","type":"mystery","status":"odd","amount":500,"currency":"USD"}`)
		transactions.On("GetByProviderTxnID", ctx, "ch1", "unknown_gateway", "x-1").Return(nil, nil)

		var created *providertx.Transaction
		transactions.On("Create", ctx, mock.AnythingOfType("*providertx.Transaction")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*providertx.Transaction) }).
			Return(nil)
		archive.On("Archive", ctx, mock.AnythingOfType("*mongo.ArchivedPayload")).Return(nil)

		_, err := svc.IngestProviderTransaction(ctx, "ch1", "unknown_gateway", payload)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, providertx.TypePayment, created.Type)
		assert.Equal(t, providertx.StatusPending, created.Status)
		assert.False(t, created.TransactionDate.IsZero(), "missing timestamp defaults to ingestion time")
	})
}

func TestIngestionService_GetArchivedPayload(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the archived payload", func(t *testing.T) {
		archive := new(MockPayloadArchiver)
		svc := NewIngestionService(newTestLogger(), new(MockProviderTxnRepository), archive)

		archived := &mongo.ArchivedPayload{
			ChannelID:     "ch1",
			Provider:      "stripe",
			ProviderTxnID: "ch_3NxYz",
			Payload:       []byte(stripeChargePayload),
		}
		archive.On("Get", ctx, "ch1", "stripe", "ch_3NxYz").Return(archived, nil)

		got, err := svc.GetArchivedPayload(ctx, "ch1", "stripe", "ch_3NxYz")
		require.NoError(t, err)
		assert.Same(t, archived, got)
		archive.AssertExpectations(t)
	})

	t.Run("no archived payload", func(t *testing.T) {
		archive := new(MockPayloadArchiver)
		svc := NewIngestionService(newTestLogger(), new(MockProviderTxnRepository), archive)

		archive.On("Get", ctx, "ch1", "stripe", "ch_missing").Return(nil, nil)

		got, err := svc.GetArchivedPayload(ctx, "ch1", "stripe", "ch_missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("archive error", func(t *testing.T) {
		archive := new(MockPayloadArchiver)
		svc := NewIngestionService(newTestLogger(), new(MockProviderTxnRepository), archive)

		archiveErr := errors.New("mongo unavailable")
		archive.On("Get", ctx, "ch1", "stripe", "ch_3NxYz").Return(nil, archiveErr)

		got, err := svc.GetArchivedPayload(ctx, "ch1", "stripe", "ch_3NxYz")
		assert.ErrorIs(t, err, archiveErr)
		assert.Nil(t, got)
	})
}

func TestIngestionService_BulkIngest(t *testing.T) {
	ctx := context.Background()
	transactions := new(MockProviderTxnRepository)
	archive := new(MockPayloadArchiver)
	svc := NewIngestionService(newTestLogger(), transactions, archive)

	transactions.On("GetByProviderTxnID", ctx, "ch1", "stripe", "ch_3NxYz").Return(nil, nil)
	transactions.On("Create", ctx, mock.AnythingOfType("*providertx.Transaction")).Return(nil)
	archive.On("Archive", ctx, mock.AnythingOfType("*mongo.ArchivedPayload")).Return(nil)

	payloads := [][]byte{
		[]byte(stripeChargePayload),
		[]byte(`{broken`),
		[]byte(`{"currency":"USD"}`),
	}

	ingested, err := svc.BulkIngest(ctx, "ch1", "stripe", payloads)
	require.NoError(t, err)
	assert.Equal(t, 1, ingested, "malformed records are skipped, not fatal")
}
