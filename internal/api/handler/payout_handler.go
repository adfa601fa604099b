package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/streamcart/finance-ledger/internal/service"
)

// PayoutHandler handles HTTP requests for creator payout operations
type PayoutHandler struct {
	payoutService service.PayoutService
	logger        *slog.Logger
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(logger *slog.Logger, payoutService service.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		logger:        logger,
	}
}

// GetEarnings computes a creator's earnings for a period
func (h *PayoutHandler) GetEarnings(c *gin.Context) {
	channelID := c.Param("channelID")
	creatorID := c.Param("creatorID")

	start, end, ok := bindPeriod(c)
	if !ok {
		return
	}

	earnings, err := h.payoutService.CalculateCreatorEarnings(c.Request.Context(), channelID, creatorID, start, end)
	if err != nil {
		h.logger.Error("Failed to calculate creator earnings",
			"channel_id", channelID, "creator_id", creatorID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, earnings)
}

// Create persists a PENDING payout for a creator period
func (h *PayoutHandler) Create(c *gin.Context) {
	channelID := c.Param("channelID")

	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.payoutService.CreatePayout(c.Request.Context(), channelID, req.CreatorID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		h.logger.Error("Failed to create payout",
			"channel_id", channelID, "creator_id", req.CreatorID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, p)
}

// Execute dispatches a PENDING payout through its provider adapter
func (h *PayoutHandler) Execute(c *gin.Context) {
	channelID := c.Param("channelID")
	payoutID, ok := parsePayoutID(c)
	if !ok {
		return
	}

	p, err := h.payoutService.ExecutePayout(c.Request.Context(), channelID, payoutID)
	if err != nil {
		h.logger.Error("Failed to execute payout",
			"channel_id", channelID, "payout_id", payoutID.String(), "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, p)
}

// BatchExecute executes a set of payouts sequentially, continuing past failures
func (h *PayoutHandler) BatchExecute(c *gin.Context) {
	channelID := c.Param("channelID")

	var req BatchExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payoutIDs := make([]uuid.UUID, 0, len(req.PayoutIDs))
	for _, raw := range req.PayoutIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid payout ID: "+raw)
			return
		}
		payoutIDs = append(payoutIDs, id)
	}

	result, err := h.payoutService.BatchExecutePayouts(c.Request.Context(), channelID, payoutIDs)
	if err != nil {
		h.logger.Error("Batch payout execution failed", "channel_id", channelID, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, result)
}

// Hold places a PENDING payout on manual hold
func (h *PayoutHandler) Hold(c *gin.Context) {
	channelID := c.Param("channelID")
	payoutID, ok := parsePayoutID(c)
	if !ok {
		return
	}

	var req HoldPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.payoutService.HoldPayout(c.Request.Context(), channelID, payoutID, req.Reason)
	if err != nil {
		h.logger.Error("Failed to hold payout",
			"channel_id", channelID, "payout_id", payoutID.String(), "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, p)
}

// Release moves a HELD payout back to PENDING
func (h *PayoutHandler) Release(c *gin.Context) {
	channelID := c.Param("channelID")
	payoutID, ok := parsePayoutID(c)
	if !ok {
		return
	}

	p, err := h.payoutService.ReleasePayout(c.Request.Context(), channelID, payoutID)
	if err != nil {
		h.logger.Error("Failed to release payout",
			"channel_id", channelID, "payout_id", payoutID.String(), "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, p)
}

// parsePayoutID parses the payout id path parameter
func parsePayoutID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("payoutID")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid payout ID")
		return uuid.Nil, false
	}
	return id, true
}
