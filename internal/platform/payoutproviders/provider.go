// Package payoutproviders contains the adapters that move funds through
// external payout networks. The payout service never branches on a provider
// string; it resolves one Adapter from the Registry and calls Submit.
package payoutproviders

import (
	"context"
	"fmt"
)

// Provider names stored on creators and payouts
const (
	ProviderBankTransfer = "bank_transfer"
	ProviderWallet       = "wallet"
)

// Adapter submits one disbursement to an external payout network.
// Submit blocks until the network accepts or rejects the request; callers
// bound the call with their context.
type Adapter interface {
	// Submit returns the provider-native transaction id on acceptance
	Submit(ctx context.Context, recipient string, amount int64, currency string) (string, error)
}

// ErrProvider wraps a payout network failure. Terminal marks a rejection the
// network will never accept on retry (a 4xx response); the payout service
// moves those to FAILED. Non-terminal failures leave the payout PENDING and
// retryable.
type ErrProvider struct {
	Provider string
	Terminal bool
	Err      error
}

func (e ErrProvider) Error() string {
	return fmt.Sprintf("payout provider %s failed: %v", e.Provider, e.Err)
}

func (e ErrProvider) Unwrap() error {
	return e.Err
}

// Is implements errors.Is matching for ErrProvider
func (e ErrProvider) Is(target error) bool {
	t, ok := target.(ErrProvider)
	if !ok {
		return false
	}
	if t.Provider == "" {
		return true
	}
	return e.Provider == t.Provider
}

// isTerminalStatus classifies an HTTP rejection: a 4xx means the network
// refused the request itself, so resubmitting the same transfer cannot
// succeed. 5xx and everything else count as transient.
func isTerminalStatus(status int) bool {
	return status >= 400 && status < 500
}

// ErrUnknownProvider indicates no adapter is registered for the provider name
type ErrUnknownProvider struct {
	Provider string
}

func (e ErrUnknownProvider) Error() string {
	return "unknown payout provider: " + e.Provider
}

// Registry resolves payout adapters by provider name
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry over the given adapters
func NewRegistry(adapters map[string]Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Get resolves the adapter for a provider name
func (r *Registry) Get(provider string) (Adapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, ErrUnknownProvider{Provider: provider}
	}
	return adapter, nil
}
