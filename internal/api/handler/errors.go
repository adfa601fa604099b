package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/streamcart/finance-ledger/internal/domain/creator"
	"github.com/streamcart/finance-ledger/internal/domain/idempotency"
	"github.com/streamcart/finance-ledger/internal/domain/ledger"
	"github.com/streamcart/finance-ledger/internal/domain/payout"
	"github.com/streamcart/finance-ledger/internal/domain/providertx"
	"github.com/streamcart/finance-ledger/internal/platform/payoutproviders"
)

// respondDomainError translates domain errors into HTTP responses. Anything
// unrecognized falls through to a 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidCurrency):
		RespondBadRequest(c, err.Error())

	case errors.Is(err, ledger.ErrEntryNotFound{}),
		errors.Is(err, providertx.ErrTransactionNotFound{}),
		errors.Is(err, payout.ErrPayoutNotFound{}),
		errors.Is(err, creator.ErrCreatorNotFound{}):
		RespondNotFound(c, err.Error())

	case errors.Is(err, idempotency.ErrInProgress{}),
		errors.Is(err, providertx.ErrDuplicateTransaction{}),
		errors.Is(err, providertx.ErrAlreadyReconciled{}),
		errors.Is(err, payout.ErrInvalidTransition{}):
		RespondConflict(c, err.Error())

	case errors.Is(err, payout.ErrFraudHold{}):
		RespondUnprocessable(c, "FRAUD_HOLD", err.Error())

	case errors.Is(err, payout.ErrActiveHold{}):
		RespondUnprocessable(c, "ACTIVE_HOLD", err.Error())

	case errors.Is(err, payout.ErrNoEarnings{}):
		RespondUnprocessable(c, "NO_EARNINGS", err.Error())

	case errors.Is(err, payoutproviders.ErrProvider{}):
		RespondBadGateway(c, err.Error())

	case errors.As(err, &payoutproviders.ErrUnknownProvider{}):
		RespondBadRequest(c, err.Error())

	default:
		RespondInternalError(c)
	}
}
