package payoutproviders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestBankTransferAdapter_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/transfers", r.URL.Path)

			var req bankTransferRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "acct_9f2", req.AccountNumber)
			assert.Equal(t, int64(168300), req.AmountCents)
			assert.Equal(t, "USD", req.Currency)

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(bankTransferResponse{TransferID: "bt_991", Status: "accepted"})
		}))
		defer server.Close()

		adapter := NewBankTransferAdapter(newTestLogger(), server.URL, 5*time.Second)

		transferID, err := adapter.Submit(ctx, "acct_9f2", 168300, "USD")
		require.NoError(t, err)
		assert.Equal(t, "bt_991", transferID)
	})

	t.Run("rejected status surfaces as a provider error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		adapter := NewBankTransferAdapter(newTestLogger(), server.URL, 5*time.Second)

		transferID, err := adapter.Submit(ctx, "acct_9f2", 168300, "USD")
		assert.ErrorIs(t, err, ErrProvider{Provider: ProviderBankTransfer})
		assert.Empty(t, transferID)

		var provErr ErrProvider
		require.ErrorAs(t, err, &provErr)
		assert.True(t, provErr.Terminal, "a 4xx rejection will never succeed on retry")
	})

	t.Run("server error is not terminal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		adapter := NewBankTransferAdapter(newTestLogger(), server.URL, 5*time.Second)

		_, err := adapter.Submit(ctx, "acct_9f2", 168300, "USD")
		var provErr ErrProvider
		require.ErrorAs(t, err, &provErr)
		assert.False(t, provErr.Terminal)
	})

	t.Run("empty transfer id is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(bankTransferResponse{Status: "accepted"})
		}))
		defer server.Close()

		adapter := NewBankTransferAdapter(newTestLogger(), server.URL, 5*time.Second)

		_, err := adapter.Submit(ctx, "acct_9f2", 168300, "USD")
		assert.ErrorIs(t, err, ErrProvider{})
	})

	t.Run("unreachable network", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		adapter := NewBankTransferAdapter(newTestLogger(), server.URL, time.Second)

		_, err := adapter.Submit(ctx, "acct_9f2", 168300, "USD")
		assert.ErrorIs(t, err, ErrProvider{Provider: ProviderBankTransfer})
	})
}

func TestWalletAdapter_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payouts", r.URL.Path)

			var req walletPayoutRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "w_7781", req.WalletID)

			json.NewEncoder(w).Encode(walletPayoutResponse{PayoutID: "wp_5567"})
		}))
		defer server.Close()

		adapter := NewWalletAdapter(newTestLogger(), server.URL, 5*time.Second)

		payoutID, err := adapter.Submit(ctx, "w_7781", 42000, "USD")
		require.NoError(t, err)
		assert.Equal(t, "wp_5567", payoutID)
	})

	t.Run("malformed response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))
		defer server.Close()

		adapter := NewWalletAdapter(newTestLogger(), server.URL, 5*time.Second)

		_, err := adapter.Submit(ctx, "w_7781", 42000, "USD")
		assert.ErrorIs(t, err, ErrProvider{Provider: ProviderWallet})
	})
}

func TestRegistry_Get(t *testing.T) {
	bank := NewBankTransferAdapter(newTestLogger(), "http://localhost:0", time.Second)
	registry := NewRegistry(map[string]Adapter{ProviderBankTransfer: bank})

	t.Run("registered provider", func(t *testing.T) {
		adapter, err := registry.Get(ProviderBankTransfer)
		require.NoError(t, err)
		assert.Same(t, bank, adapter)
	})

	t.Run("unknown provider", func(t *testing.T) {
		adapter, err := registry.Get("carrier_pigeon")
		assert.Nil(t, adapter)

		var unknownErr ErrUnknownProvider
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "carrier_pigeon", unknownErr.Provider)
	})
}
