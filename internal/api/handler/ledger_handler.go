package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streamcart/finance-ledger/internal/domain/ledger"
	"github.com/streamcart/finance-ledger/internal/service"
)

// LedgerHandler handles HTTP requests for ledger operations
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// PostEntry posts one double-entry record with optional idempotency
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	channelID := c.Param("channelID")

	var req PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	spec := &ledger.EntrySpec{
		Type:          ledger.EntryType(req.Type),
		RefType:       ledger.RefType(req.RefType),
		RefID:         req.RefID,
		DebitAccount:  ledger.Account(req.DebitAccount),
		CreditAccount: ledger.Account(req.CreditAccount),
		Amount:        req.Amount,
		Currency:      req.Currency,
		FXRate:        req.FXRate,
		BaseCurrency:  req.BaseCurrency,
		Description:   req.Description,
	}

	entryID, err := h.ledgerService.PostEntry(c.Request.Context(), channelID, spec, req.IdempotencyKey)
	if err != nil {
		h.logger.Error("Failed to post ledger entry", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, gin.H{"entry_id": entryID})
}

// PostSale records a paid order as its entry composition
func (h *LedgerHandler) PostSale(c *gin.Context) {
	channelID := c.Param("channelID")

	var req PostSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entryIDs, err := h.ledgerService.PostSale(c.Request.Context(), channelID, req.OrderID,
		req.GrossCents, req.PaymentFeeCents, req.CreatorCommission, req.Currency)
	if err != nil {
		h.logger.Error("Failed to post sale", "channel_id", channelID, "order_id", req.OrderID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, gin.H{"entry_ids": entryIDs})
}

// PostRefund reverses revenue for a refunded order
func (h *LedgerHandler) PostRefund(c *gin.Context) {
	channelID := c.Param("channelID")

	var req PostRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entryID, err := h.ledgerService.PostRefund(c.Request.Context(), channelID, req.OrderID, req.RefundCents, req.Currency)
	if err != nil {
		h.logger.Error("Failed to post refund", "channel_id", channelID, "order_id", req.OrderID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, gin.H{"entry_id": entryID})
}

// GetBalance returns one account balance with the sign convention applied
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	channelID := c.Param("channelID")
	account := ledger.Account(c.Param("account"))
	currency := c.Query("currency")

	if !account.IsValid() {
		RespondBadRequest(c, "Unknown account: "+string(account))
		return
	}

	balance, err := h.ledgerService.GetAccountBalance(c.Request.Context(), channelID, account, currency)
	if err != nil {
		h.logger.Error("Failed to get account balance", "channel_id", channelID, "account", account, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, BalanceResponse{
		Account:  string(account),
		Currency: currency,
		Balance:  balance,
	})
}

// GetEntriesByRef lists entries referencing a business object
func (h *LedgerHandler) GetEntriesByRef(c *gin.Context) {
	channelID := c.Param("channelID")
	refType := ledger.RefType(c.Param("refType"))
	refID := c.Param("refID")

	entries, err := h.ledgerService.GetEntriesForRef(c.Request.Context(), channelID, refType, refID)
	if err != nil {
		h.logger.Error("Failed to get entries by ref", "channel_id", channelID, "ref_id", refID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, gin.H{"entries": entries})
}

// GetEntriesInRange lists entries posted within a period
func (h *LedgerHandler) GetEntriesInRange(c *gin.Context) {
	channelID := c.Param("channelID")

	start, end, ok := bindPeriod(c)
	if !ok {
		return
	}

	entries, err := h.ledgerService.GetEntriesInRange(c.Request.Context(), channelID, start, end)
	if err != nil {
		h.logger.Error("Failed to get entries in range", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, gin.H{"entries": entries})
}

// bindPeriod parses required RFC3339 start/end query parameters
func bindPeriod(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing start parameter, expected RFC3339")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing end parameter, expected RFC3339")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
