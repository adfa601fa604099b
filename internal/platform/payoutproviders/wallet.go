package payoutproviders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// WalletAdapter submits payouts through the wallet network API
type WalletAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewWalletAdapter creates a wallet adapter against the given base URL
func NewWalletAdapter(logger *slog.Logger, baseURL string, timeout time.Duration) *WalletAdapter {
	return &WalletAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type walletPayoutRequest struct {
	WalletID    string `json:"wallet_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type walletPayoutResponse struct {
	PayoutID string `json:"payout_id"`
}

// Submit sends one wallet credit request
func (a *WalletAdapter) Submit(ctx context.Context, recipient string, amount int64, currency string) (string, error) {
	body, err := json.Marshal(walletPayoutRequest{
		WalletID:    recipient,
		AmountCents: amount,
		Currency:    currency,
	})
	if err != nil {
		return "", ErrProvider{Provider: ProviderWallet, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/payouts", bytes.NewReader(body))
	if err != nil {
		return "", ErrProvider{Provider: ProviderWallet, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("Wallet payout submission failed", "error", err)
		return "", ErrProvider{Provider: ProviderWallet, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		a.logger.Error("Wallet payout rejected", "status", resp.StatusCode)
		return "", ErrProvider{Provider: ProviderWallet, Terminal: isTerminalStatus(resp.StatusCode), Err: err}
	}

	var payoutResp walletPayoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&payoutResp); err != nil {
		return "", ErrProvider{Provider: ProviderWallet, Err: err}
	}
	if payoutResp.PayoutID == "" {
		return "", ErrProvider{Provider: ProviderWallet, Err: fmt.Errorf("empty payout id in response")}
	}

	return payoutResp.PayoutID, nil
}
