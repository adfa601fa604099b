// Package api exposes the finance ledger over HTTP using gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamcart/finance-ledger/internal/api/handler"
	"github.com/streamcart/finance-ledger/internal/config"
	"github.com/streamcart/finance-ledger/internal/platform/messaging/producers"
	"github.com/streamcart/finance-ledger/internal/service"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// Services bundles the business services the HTTP layer exposes
type Services struct {
	Ledger         service.LedgerService
	Ingestion      service.IngestionService
	Reconciliation service.ReconciliationService
	Payout         service.PayoutService
	Reporting      service.ReportingService
}

// NewServer creates and configures a new HTTP server with the given services.
// eventProducer may be nil when async ingestion is disabled.
func NewServer(log *slog.Logger, cfg *config.Config, services Services, eventProducer producers.MessagePublisher) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	ledgerHandler := handler.NewLedgerHandler(log, services.Ledger)
	ingestionHandler := handler.NewIngestionHandler(log, services.Ingestion, eventProducer)
	reconciliationHandler := handler.NewReconciliationHandler(log, services.Reconciliation)
	payoutHandler := handler.NewPayoutHandler(log, services.Payout)
	reportingHandler := handler.NewReportingHandler(log, services.Reporting)

	setupRouter(log, httpRouter, ledgerHandler, ingestionHandler, reconciliationHandler, payoutHandler, reportingHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
