package ledger

// Account identifies a ledger account in the fixed chart of accounts
type Account string

const (
	AccountCash            Account = "CASH"
	AccountRevenue         Account = "REVENUE"
	AccountCOGS            Account = "COGS"
	AccountFees            Account = "FEES"
	AccountPayableCreator  Account = "PAYABLE_CREATOR"
	AccountPayableSupplier Account = "PAYABLE_SUPPLIER"
	AccountReceivable      Account = "RECEIVABLE"
	AccountRefunds         Account = "REFUNDS"
	AccountChargebacks     Account = "CHARGEBACKS"
	AccountFXGain          Account = "FX_GAIN"
	AccountFXLoss          Account = "FX_LOSS"
	AccountReserves        Account = "RESERVES"
)

// AccountNormality determines the sign convention when computing a balance
type AccountNormality int

const (
	// DebitNormal accounts carry balance = sum(debits) - sum(credits)
	DebitNormal AccountNormality = iota
	// CreditNormal accounts carry balance = sum(credits) - sum(debits)
	CreditNormal
)

// accountNormality maps each account to its balance sign convention.
// Assets and expenses are debit-normal; liabilities and revenue are credit-normal.
var accountNormality = map[Account]AccountNormality{
	AccountCash:            DebitNormal,
	AccountReceivable:      DebitNormal,
	AccountCOGS:            DebitNormal,
	AccountFees:            DebitNormal,
	AccountRefunds:         DebitNormal,
	AccountChargebacks:     DebitNormal,
	AccountRevenue:         CreditNormal,
	AccountPayableCreator:  CreditNormal,
	AccountPayableSupplier: CreditNormal,
	AccountFXGain:          CreditNormal,
	AccountFXLoss:          CreditNormal,
	AccountReserves:        CreditNormal,
}

// Normality returns the sign convention for the account.
// Unknown accounts default to debit-normal.
func (a Account) Normality() AccountNormality {
	if n, ok := accountNormality[a]; ok {
		return n
	}
	return DebitNormal
}

// IsValid reports whether the account belongs to the chart of accounts
func (a Account) IsValid() bool {
	_, ok := accountNormality[a]
	return ok
}

// Balance applies the account's sign convention to raw debit and credit sums
func (a Account) Balance(debits, credits int64) int64 {
	if a.Normality() == DebitNormal {
		return debits - credits
	}
	return credits - debits
}
