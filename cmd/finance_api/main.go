package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/streamcart/finance-ledger/internal/api"
	"github.com/streamcart/finance-ledger/internal/config"
	"github.com/streamcart/finance-ledger/internal/data/mongo"
	"github.com/streamcart/finance-ledger/internal/data/postgres"
	"github.com/streamcart/finance-ledger/internal/logger"
	"github.com/streamcart/finance-ledger/internal/platform/messaging/producers"
	"github.com/streamcart/finance-ledger/internal/platform/payoutproviders"
	"github.com/streamcart/finance-ledger/internal/platform/persistence"
	"github.com/streamcart/finance-ledger/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("finance_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for async ingestion
	eventProducer, err := producers.NewProviderEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize provider event Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	providerTxnRepo := postgres.NewProviderTransactionRepository(log, postgresDB)
	reconciliationRepo := postgres.NewReconciliationRepository(log, postgresDB)
	payoutRepo := postgres.NewPayoutRepository(log, postgresDB)
	creatorRepo := postgres.NewCreatorRepository(log, postgresDB)
	idempotencyRepo := postgres.NewIdempotencyRepository(log, postgresDB)
	payloadArchive := mongo.NewPayloadArchive(log, mongoDB.Database())

	// Initialize payout provider adapters
	providerRegistry := payoutproviders.NewRegistry(map[string]payoutproviders.Adapter{
		payoutproviders.ProviderBankTransfer: payoutproviders.NewBankTransferAdapter(log, cfg.Payout.BankTransferURL, cfg.Payout.RequestTimeout),
		payoutproviders.ProviderWallet:       payoutproviders.NewWalletAdapter(log, cfg.Payout.WalletURL, cfg.Payout.RequestTimeout),
	})

	// Initialize services
	ledgerService := service.NewLedgerService(log, postgresDB, ledgerRepo, idempotencyRepo)
	ingestionService := service.NewIngestionService(log, providerTxnRepo, payloadArchive)
	reconciliationService := service.NewReconciliationService(log, postgresDB, ledgerRepo, providerTxnRepo, reconciliationRepo)
	payoutService := service.NewPayoutService(log, postgresDB, payoutRepo, creatorRepo, creatorRepo, providerRegistry, ledgerService)
	reportingService := service.NewReportingService(log, ledgerRepo)

	// Initialize REST server
	server := api.NewServer(log, cfg, api.Services{
		Ledger:         ledgerService,
		Ingestion:      ingestionService,
		Reconciliation: reconciliationService,
		Payout:         payoutService,
		Reporting:      reportingService,
	}, eventProducer)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
