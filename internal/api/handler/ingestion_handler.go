package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/streamcart/finance-ledger/internal/platform/messaging/producers"
	"github.com/streamcart/finance-ledger/internal/service"
)

// IngestionHandler handles HTTP requests for provider transaction ingestion
type IngestionHandler struct {
	ingestionService service.IngestionService
	eventProducer    producers.MessagePublisher
	logger           *slog.Logger
}

// NewIngestionHandler creates a new ingestion handler. The event producer may
// be nil when the API runs without Kafka; the enqueue endpoint then rejects.
func NewIngestionHandler(logger *slog.Logger, ingestionService service.IngestionService, eventProducer producers.MessagePublisher) *IngestionHandler {
	return &IngestionHandler{
		ingestionService: ingestionService,
		eventProducer:    eventProducer,
		logger:           logger,
	}
}

// Ingest synchronously normalizes and persists one raw provider payload
func (h *IngestionHandler) Ingest(c *gin.Context) {
	channelID := c.Param("channelID")

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txnID, err := h.ingestionService.IngestProviderTransaction(c.Request.Context(), channelID, req.Provider, []byte(req.Payload))
	if err != nil {
		h.logger.Error("Failed to ingest provider transaction",
			"channel_id", channelID, "provider", req.Provider, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondCreated(c, gin.H{"transaction_id": txnID})
}

// BulkIngest processes a batch of payloads, skipping malformed records
func (h *IngestionHandler) BulkIngest(c *gin.Context) {
	channelID := c.Param("channelID")

	var req BulkIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payloads := make([][]byte, 0, len(req.Payloads))
	for _, p := range req.Payloads {
		payloads = append(payloads, []byte(p))
	}

	count, err := h.ingestionService.BulkIngest(c.Request.Context(), channelID, req.Provider, payloads)
	if err != nil {
		h.logger.Error("Failed to bulk ingest provider transactions",
			"channel_id", channelID, "provider", req.Provider, "error", err)
		respondDomainError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"ingested": count,
		"received": len(req.Payloads),
	})
}

// GetArchivedPayload returns the raw payload archived for one provider event
func (h *IngestionHandler) GetArchivedPayload(c *gin.Context) {
	channelID := c.Param("channelID")
	provider := c.Param("provider")
	providerTxnID := c.Param("providerTxnID")

	archived, err := h.ingestionService.GetArchivedPayload(c.Request.Context(), channelID, provider, providerTxnID)
	if err != nil {
		h.logger.Error("Failed to look up archived payload",
			"channel_id", channelID, "provider", provider, "provider_txn_id", providerTxnID, "error", err)
		respondDomainError(c, err)
		return
	}
	if archived == nil {
		RespondNotFound(c, "No archived payload for "+provider+"/"+providerTxnID)
		return
	}

	RespondOK(c, gin.H{
		"provider":        archived.Provider,
		"provider_txn_id": archived.ProviderTxnID,
		"payload":         string(archived.Payload),
		"archived_at":     archived.ArchivedAt,
	})
}

// Enqueue publishes a raw provider payload onto the event topic for the
// ingestion worker to pick up
func (h *IngestionHandler) Enqueue(c *gin.Context) {
	channelID := c.Param("channelID")

	if h.eventProducer == nil {
		RespondBadRequest(c, "Async ingestion is not enabled")
		return
	}

	var req EnqueueEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	envelope := gin.H{
		"channel_id": channelID,
		"provider":   req.Provider,
		"payload":    req.Payload,
	}
	if err := h.eventProducer.Publish(c.Request.Context(), req.Key, envelope); err != nil {
		h.logger.Error("Failed to enqueue provider event",
			"channel_id", channelID, "provider", req.Provider, "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{"status": "ENQUEUED"})
}
