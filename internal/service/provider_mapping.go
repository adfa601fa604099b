package service

import "github.com/streamcart/finance-ledger/internal/domain/providertx"

// Provider payloads arrive with native event and status codes. Each provider
// gets a fixed lookup table into the canonical type and status spaces;
// unrecognized codes fall back to PAYMENT / PENDING so nothing is dropped on
// the floor when a provider ships a new code.

var providerTypeMappings = map[string]map[string]providertx.Type{
	"stripe": {
		"charge":          providertx.TypePayment,
		"payment_intent":  providertx.TypePayment,
		"refund":          providertx.TypeRefund,
		"application_fee": providertx.TypeFee,
		"transfer":        providertx.TypePayout,
		"payout":          providertx.TypePayout,
	},
	"paypal": {
		"SALE":         providertx.TypePayment,
		"CAPTURE":      providertx.TypePayment,
		"REFUND":       providertx.TypeRefund,
		"FEE":          providertx.TypeFee,
		"MASSPAY":      providertx.TypePayout,
		"DISBURSEMENT": providertx.TypePayout,
	},
	"shopify_payments": {
		"charge":     providertx.TypePayment,
		"refund":     providertx.TypeRefund,
		"adjustment": providertx.TypeFee,
		"payout":     providertx.TypePayout,
	},
}

var providerStatusMappings = map[string]map[string]providertx.Status{
	"stripe": {
		"succeeded": providertx.StatusCompleted,
		"pending":   providertx.StatusPending,
		"failed":    providertx.StatusFailed,
		"canceled":  providertx.StatusReversed,
		"reversed":  providertx.StatusReversed,
	},
	"paypal": {
		"COMPLETED": providertx.StatusCompleted,
		"PENDING":   providertx.StatusPending,
		"DENIED":    providertx.StatusFailed,
		"FAILED":    providertx.StatusFailed,
		"REVERSED":  providertx.StatusReversed,
		"REFUNDED":  providertx.StatusReversed,
	},
	"shopify_payments": {
		"paid":      providertx.StatusCompleted,
		"pending":   providertx.StatusPending,
		"failure":   providertx.StatusFailed,
		"cancelled": providertx.StatusReversed,
	},
}

// normalizeType maps a provider-native event code to the canonical type
func normalizeType(provider, nativeType string) providertx.Type {
	if table, ok := providerTypeMappings[provider]; ok {
		if t, ok := table[nativeType]; ok {
			return t
		}
	}
	return providertx.TypePayment
}

// normalizeStatus maps a provider-native status code to the canonical status
func normalizeStatus(provider, nativeStatus string) providertx.Status {
	if table, ok := providerStatusMappings[provider]; ok {
		if s, ok := table[nativeStatus]; ok {
			return s
		}
	}
	return providertx.StatusPending
}
