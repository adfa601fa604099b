package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streamcart/finance-ledger/internal/api/handler"
	"github.com/streamcart/finance-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	ledgerHandler *handler.LedgerHandler,
	ingestionHandler *handler.IngestionHandler,
	reconciliationHandler *handler.ReconciliationHandler,
	payoutHandler *handler.PayoutHandler,
	reportingHandler *handler.ReportingHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// All financial data is channel-scoped
	v1 := r.Group("/api/v1/channels/:channelID")
	{
		// Ledger operations
		ledger := v1.Group("/ledger")
		{
			ledger.POST("/entries", ledgerHandler.PostEntry)
			ledger.POST("/sales", ledgerHandler.PostSale)
			ledger.POST("/refunds", ledgerHandler.PostRefund)
			ledger.GET("/balances/:account", ledgerHandler.GetBalance)
			ledger.GET("/entries/by-ref/:refType/:refID", ledgerHandler.GetEntriesByRef)
			ledger.GET("/entries", ledgerHandler.GetEntriesInRange)
		}

		// Provider transaction ingestion
		providerTxns := v1.Group("/provider-transactions")
		{
			providerTxns.POST("", ingestionHandler.Ingest)
			providerTxns.POST("/bulk", ingestionHandler.BulkIngest)
			providerTxns.POST("/enqueue", ingestionHandler.Enqueue)
			providerTxns.GET("/:provider/:providerTxnID/payload", ingestionHandler.GetArchivedPayload)
		}

		// Reconciliation
		reconciliation := v1.Group("/reconciliation")
		{
			reconciliation.POST("/auto", reconciliationHandler.AutoReconcile)
			reconciliation.POST("/matches", reconciliationHandler.ManualMatch)
			reconciliation.GET("/unmatched", reconciliationHandler.GetUnmatched)
			reconciliation.GET("/discrepancies", reconciliationHandler.GetDiscrepancies)
		}

		// Creator payouts
		payouts := v1.Group("/payouts")
		{
			payouts.POST("", payoutHandler.Create)
			payouts.POST("/batch-execute", payoutHandler.BatchExecute)
			payouts.POST("/:payoutID/execute", payoutHandler.Execute)
			payouts.POST("/:payoutID/hold", payoutHandler.Hold)
			payouts.POST("/:payoutID/release", payoutHandler.Release)
		}
		v1.GET("/creators/:creatorID/earnings", payoutHandler.GetEarnings)

		// Derived reports
		reports := v1.Group("/reports")
		{
			reports.GET("/profit-and-loss", reportingHandler.GetProfitAndLoss)
			reports.GET("/balance-sheet", reportingHandler.GetBalanceSheet)
			reports.GET("/cash-flow", reportingHandler.GetCashFlow)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
