// Package worker runs the asynchronous ingestion pipeline: provider events
// consumed from Kafka are dispatched into a bounded goroutine pool and
// normalized by the ingestion service.
package worker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/streamcart/finance-ledger/internal/service"
)

// PooledIngestor fans provider events out to a bounded ants pool. Each call
// blocks until its event is processed so Kafka offsets are only committed
// after durable ingestion.
type PooledIngestor struct {
	ingestion service.IngestionService
	pool      *ants.Pool
	logger    *slog.Logger
}

// NewPooledIngestor creates an ingestor over a pool of the given size
func NewPooledIngestor(logger *slog.Logger, ingestion service.IngestionService, size int) (*PooledIngestor, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &PooledIngestor{
		ingestion: ingestion,
		pool:      pool,
		logger:    logger,
	}, nil
}

// Ingest submits one provider event to the pool and waits for the result
func (p *PooledIngestor) Ingest(ctx context.Context, channelID, provider string, rawPayload []byte) (uuid.UUID, error) {
	type result struct {
		id  uuid.UUID
		err error
	}
	resultChan := make(chan result, 1)

	err := p.pool.Submit(func() {
		id, err := p.ingestion.IngestProviderTransaction(ctx, channelID, provider, rawPayload)
		resultChan <- result{id: id, err: err}
	})
	if err != nil {
		p.logger.Error("Failed to submit provider event to worker pool",
			"channel_id", channelID,
			"provider", provider,
			"error", err,
		)
		return uuid.Nil, err
	}

	res := <-resultChan
	return res.id, res.err
}

// Shutdown gracefully shuts down the worker pool
func (p *PooledIngestor) Shutdown() {
	p.logger.Info("Shutting down ingestion worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}

// Running returns the number of running workers in the pool
func (p *PooledIngestor) Running() int {
	return p.pool.Running()
}

// Capacity returns the capacity of the worker pool
func (p *PooledIngestor) Capacity() int {
	return p.pool.Cap()
}
