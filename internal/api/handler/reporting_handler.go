package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/streamcart/finance-ledger/internal/service"
)

// ReportingHandler handles HTTP requests for derived financial reports
type ReportingHandler struct {
	reportingService service.ReportingService
	logger           *slog.Logger
}

// NewReportingHandler creates a new reporting handler
func NewReportingHandler(logger *slog.Logger, reportingService service.ReportingService) *ReportingHandler {
	return &ReportingHandler{
		reportingService: reportingService,
		logger:           logger,
	}
}

// GetProfitAndLoss returns the P&L view for a period
func (h *ReportingHandler) GetProfitAndLoss(c *gin.Context) {
	channelID := c.Param("channelID")

	start, end, ok := bindPeriod(c)
	if !ok {
		return
	}

	report, err := h.reportingService.GetProfitAndLoss(c.Request.Context(), channelID, start, end)
	if err != nil {
		h.logger.Error("Failed to build P&L report", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, report)
}

// GetBalanceSheet returns point-in-time balances
func (h *ReportingHandler) GetBalanceSheet(c *gin.Context) {
	channelID := c.Param("channelID")

	report, err := h.reportingService.GetBalanceSheet(c.Request.Context(), channelID)
	if err != nil {
		h.logger.Error("Failed to build balance sheet", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, report)
}

// GetCashFlow returns cash movement for a period
func (h *ReportingHandler) GetCashFlow(c *gin.Context) {
	channelID := c.Param("channelID")

	start, end, ok := bindPeriod(c)
	if !ok {
		return
	}

	report, err := h.reportingService.GetCashFlow(c.Request.Context(), channelID, start, end)
	if err != nil {
		h.logger.Error("Failed to build cash flow report", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, report)
}
