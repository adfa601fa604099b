package ledger

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrSameAccount     = errors.New("debit and credit accounts must differ")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidAccount  = errors.New("account is not part of the chart of accounts")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
)

// EntryType classifies the business event behind a ledger entry
type EntryType string

const (
	EntryTypeSale       EntryType = "SALE"
	EntryTypeRefund     EntryType = "REFUND"
	EntryTypePayout     EntryType = "PAYOUT"
	EntryTypeFee        EntryType = "FEE"
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
	EntryTypeFXGain     EntryType = "FX_GAIN"
	EntryTypeFXLoss     EntryType = "FX_LOSS"
	EntryTypeChargeback EntryType = "CHARGEBACK"
	EntryTypeCommission EntryType = "COMMISSION"
)

// RefType identifies the kind of business object an entry references
type RefType string

const (
	RefTypeOrder  RefType = "ORDER"
	RefTypePayout RefType = "PAYOUT"
	RefTypeManual RefType = "MANUAL"
)

// Entry is an immutable double-entry ledger record. Amounts are stored in
// integer minor units (cents) to avoid floating-point rounding.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	ChannelID     string    `json:"channel_id"`
	Type          EntryType `json:"type"`
	RefType       RefType   `json:"ref_type,omitempty"`
	RefID         string    `json:"ref_id,omitempty"`
	DebitAccount  Account   `json:"debit_account"`
	CreditAccount Account   `json:"credit_account"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	FXRate        float64   `json:"fx_rate,omitempty"`
	BaseCurrency  string    `json:"base_currency,omitempty"`
	BaseAmount    int64     `json:"base_amount,omitempty"`
	Description   string    `json:"description,omitempty"`
	PostedAt      time.Time `json:"posted_at"`
}

// EntrySpec describes an entry to be posted. The ledger service assigns the
// id and posted timestamp and derives the base amount for FX entries.
type EntrySpec struct {
	Type          EntryType `json:"type"`
	RefType       RefType   `json:"ref_type,omitempty"`
	RefID         string    `json:"ref_id,omitempty"`
	DebitAccount  Account   `json:"debit_account"`
	CreditAccount Account   `json:"credit_account"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	FXRate        float64   `json:"fx_rate,omitempty"`
	BaseCurrency  string    `json:"base_currency,omitempty"`
	Description   string    `json:"description,omitempty"`
}

// Validate enforces the double-entry invariants before persistence
func (s *EntrySpec) Validate() error {
	if s.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !s.DebitAccount.IsValid() || !s.CreditAccount.IsValid() {
		return ErrInvalidAccount
	}
	if s.DebitAccount == s.CreditAccount {
		return ErrSameAccount
	}
	if len(s.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}

// NewEntry builds a persistable entry from a validated spec. The base amount
// is derived when an FX rate and a differing base currency are supplied.
func NewEntry(channelID string, spec *EntrySpec) (*Entry, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            uuid.New(),
		ChannelID:     channelID,
		Type:          spec.Type,
		RefType:       spec.RefType,
		RefID:         spec.RefID,
		DebitAccount:  spec.DebitAccount,
		CreditAccount: spec.CreditAccount,
		Amount:        spec.Amount,
		Currency:      spec.Currency,
		FXRate:        spec.FXRate,
		BaseCurrency:  spec.BaseCurrency,
		Description:   spec.Description,
		PostedAt:      time.Now().UTC(),
	}

	if spec.FXRate > 0 && spec.BaseCurrency != "" && spec.BaseCurrency != spec.Currency {
		entry.BaseAmount = int64(math.Round(float64(spec.Amount) * spec.FXRate))
	}

	return entry, nil
}
