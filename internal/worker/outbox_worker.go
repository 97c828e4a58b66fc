package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchProcessor processes one batch of outbox entries and reports how many
// were sent.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, limit int) (int, error)
}

// OutboxWorker polls the outbox from several goroutines. Skip-locked claims
// keep the goroutines from delivering the same entry twice.
type OutboxWorker struct {
	processor BatchProcessor
	logger    *zap.Logger
	batchSize int
	interval  time.Duration
	workers   int
}

// NewOutboxWorker builds a worker pool.
func NewOutboxWorker(processor BatchProcessor, logger *zap.Logger, batchSize int, interval time.Duration, workers int) *OutboxWorker {
	if workers <= 0 {
		workers = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxWorker{
		processor: processor,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
		workers:   workers,
	}
}

// Run blocks until ctx is cancelled and every goroutine has returned.
func (w *OutboxWorker) Run(ctx context.Context) {
	w.logger.Info("outbox worker started",
		zap.Int("workers", w.workers),
		zap.Int("batch_size", w.batchSize),
		zap.Duration("interval", w.interval))

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()

	w.logger.Info("outbox worker stopped")
}

func (w *OutboxWorker) loop(ctx context.Context, id int) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx, id)
		}
	}
}

// drain keeps processing while full batches come back.
func (w *OutboxWorker) drain(ctx context.Context, id int) {
	for ctx.Err() == nil {
		sent, err := w.processor.ProcessBatch(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error("failed to process outbox batch", zap.Int("worker", id), zap.Error(err))
			}
			return
		}
		if sent == 0 || sent < w.batchSize {
			return
		}
	}
}
