package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/streamcart/finance-ledger/internal/service"
)

// ReconciliationHandler handles HTTP requests for reconciliation operations
type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
	logger                *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// AutoReconcile runs one matching pass, optionally bounded by a date range
func (h *ReconciliationHandler) AutoReconcile(c *gin.Context) {
	channelID := c.Param("channelID")

	var req AutoReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var start, end time.Time
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}

	summary, err := h.reconciliationService.AutoReconcile(c.Request.Context(), channelID, start, end)
	if err != nil {
		h.logger.Error("Auto-reconciliation failed", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, summary)
}

// ManualMatch records an operator override match
func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	channelID := c.Param("channelID")

	var req ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	providerTxnID, err := uuid.Parse(req.ProviderTxnID)
	if err != nil {
		RespondBadRequest(c, "Invalid provider transaction ID")
		return
	}
	ledgerEntryID, err := uuid.Parse(req.LedgerEntryID)
	if err != nil {
		RespondBadRequest(c, "Invalid ledger entry ID")
		return
	}

	match, err := h.reconciliationService.ManualMatch(c.Request.Context(), channelID, providerTxnID, ledgerEntryID, req.Notes)
	if err != nil {
		h.logger.Error("Manual match failed",
			"channel_id", channelID,
			"provider_txn_id", req.ProviderTxnID,
			"ledger_entry_id", req.LedgerEntryID,
			"error", err)
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, match)
}

// GetUnmatched lists transactions no reconciliation pass has matched yet
func (h *ReconciliationHandler) GetUnmatched(c *gin.Context) {
	channelID := c.Param("channelID")

	transactions, err := h.reconciliationService.GetUnmatchedTransactions(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("Failed to list unmatched transactions", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, gin.H{"transactions": transactions})
}

// GetDiscrepancies lists matches recorded with a non-zero discrepancy
func (h *ReconciliationHandler) GetDiscrepancies(c *gin.Context) {
	channelID := c.Param("channelID")

	matches, err := h.reconciliationService.GetDiscrepancies(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("Failed to list discrepancies", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, gin.H{"matches": matches})
}
