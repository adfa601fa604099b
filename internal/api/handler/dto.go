package handler

import "time"

// PostEntryRequest posts one double-entry record
type PostEntryRequest struct {
	Type           string  `json:"type" binding:"required"`
	RefType        string  `json:"ref_type,omitempty"`
	RefID          string  `json:"ref_id,omitempty"`
	DebitAccount   string  `json:"debit_account" binding:"required"`
	CreditAccount  string  `json:"credit_account" binding:"required"`
	Amount         int64   `json:"amount" binding:"required,gt=0"`
	Currency       string  `json:"currency" binding:"required,len=3"`
	FXRate         float64 `json:"fx_rate,omitempty"`
	BaseCurrency   string  `json:"base_currency,omitempty"`
	Description    string  `json:"description,omitempty"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// PostSaleRequest records a paid order
type PostSaleRequest struct {
	OrderID           string `json:"order_id" binding:"required"`
	GrossCents        int64  `json:"gross_cents" binding:"required,gt=0"`
	PaymentFeeCents   int64  `json:"payment_fee_cents" binding:"min=0"`
	CreatorCommission int64  `json:"creator_commission_cents" binding:"min=0"`
	Currency          string `json:"currency" binding:"required,len=3"`
}

// PostRefundRequest reverses revenue for a refunded order
type PostRefundRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	RefundCents int64  `json:"refund_cents" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

// IngestRequest carries one raw provider payload
type IngestRequest struct {
	Provider string `json:"provider" binding:"required"`
	Payload  string `json:"payload" binding:"required"`
}

// BulkIngestRequest carries a batch of raw provider payloads
type BulkIngestRequest struct {
	Provider string   `json:"provider" binding:"required"`
	Payloads []string `json:"payloads" binding:"required,min=1"`
}

// EnqueueEventRequest publishes a raw provider payload for async ingestion
type EnqueueEventRequest struct {
	Provider string `json:"provider" binding:"required"`
	Key      string `json:"key" binding:"required"`
	Payload  string `json:"payload" binding:"required"`
}

// AutoReconcileRequest bounds an auto-reconciliation pass
type AutoReconcileRequest struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// ManualMatchRequest records an operator reconciliation override
type ManualMatchRequest struct {
	ProviderTxnID string `json:"provider_txn_id" binding:"required,uuid"`
	LedgerEntryID string `json:"ledger_entry_id" binding:"required,uuid"`
	Notes         string `json:"notes,omitempty"`
}

// CreatePayoutRequest creates a PENDING payout for a creator period
type CreatePayoutRequest struct {
	CreatorID   string    `json:"creator_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// BatchExecuteRequest executes a set of payouts sequentially
type BatchExecuteRequest struct {
	PayoutIDs []string `json:"payout_ids" binding:"required,min=1,dive,uuid"`
}

// HoldPayoutRequest places a payout on manual hold
type HoldPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// BalanceResponse reports one account balance with the sign convention applied
type BalanceResponse struct {
	Account  string `json:"account"`
	Currency string `json:"currency,omitempty"`
	Balance  int64  `json:"balance"`
}
