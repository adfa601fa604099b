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

// BankTransferAdapter submits payouts through the bank-transfer network API
type BankTransferAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewBankTransferAdapter creates a bank-transfer adapter against the given base URL
func NewBankTransferAdapter(logger *slog.Logger, baseURL string, timeout time.Duration) *BankTransferAdapter {
	return &BankTransferAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type bankTransferRequest struct {
	AccountNumber string `json:"account_number"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
}

type bankTransferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
}

// Submit sends one transfer request. The recipient is the stored account
// reference from the creator's payout profile.
func (a *BankTransferAdapter) Submit(ctx context.Context, recipient string, amount int64, currency string) (string, error) {
	body, err := json.Marshal(bankTransferRequest{
		AccountNumber: recipient,
		AmountCents:   amount,
		Currency:      currency,
	})
	if err != nil {
		return "", ErrProvider{Provider: ProviderBankTransfer, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return "", ErrProvider{Provider: ProviderBankTransfer, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("Bank transfer submission failed", "error", err)
		return "", ErrProvider{Provider: ProviderBankTransfer, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		a.logger.Error("Bank transfer rejected", "status", resp.StatusCode)
		return "", ErrProvider{Provider: ProviderBankTransfer, Terminal: isTerminalStatus(resp.StatusCode), Err: err}
	}

	var transferResp bankTransferResponse
	if err := json.NewDecoder(resp.Body).Decode(&transferResp); err != nil {
		return "", ErrProvider{Provider: ProviderBankTransfer, Err: err}
	}
	if transferResp.TransferID == "" {
		return "", ErrProvider{Provider: ProviderBankTransfer, Err: fmt.Errorf("empty transfer id in response")}
	}

	return transferResp.TransferID, nil
}
