package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

// releaseTimeout bounds handing unprocessed rows back once the run context is gone.
const releaseTimeout = 5 * time.Second

// SyncFacade exposes the subset of application functionality required by the worker.
type SyncFacade interface {
	PendingSyncsForRetry(ctx context.Context, limit int) ([]model.PendingFulfillmentSync, error)
	RetryPendingSync(ctx context.Context, p model.PendingFulfillmentSync) (model.SyncStatus, error)
	ReleasePendingSyncs(ctx context.Context, ids []int64) (int64, error)
}

// SyncRetrier polls pending fulfillment syncs and re-enqueues them concurrently.
type SyncRetrier struct {
	facade       SyncFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.PendingFulfillmentSync
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSyncRetrier constructs the retry worker pool.
func NewSyncRetrier(facade SyncFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *SyncRetrier {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &SyncRetrier{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.PendingFulfillmentSync, batchSize*workers),
	}
}

// Start launches background processing. ctx must outlive the fx start hook.
func (r *SyncRetrier) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for in-flight retries and returns claimed rows nobody picked up to PENDING.
func (r *SyncRetrier) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	r.wg.Wait()

	// dispatch closed jobs on exit.
	var leftover []model.PendingFulfillmentSync
	for row := range r.jobs {
		leftover = append(leftover, row)
	}
	r.release(leftover)

	r.mu.Lock()
	r.jobs = make(chan model.PendingFulfillmentSync, r.batchSize*r.workers)
	r.mu.Unlock()
}

func (r *SyncRetrier) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.claimAndDispatch(ctx)
		}
	}
}

func (r *SyncRetrier) claimAndDispatch(ctx context.Context) {
	rows, err := r.facade.PendingSyncsForRetry(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("claim pending syncs failed", slog.String("error", err.Error()))
		return
	}
	for i, row := range rows {
		select {
		case <-ctx.Done():
			r.release(rows[i:])
			return
		case r.jobs <- row:
		}
	}
}

func (r *SyncRetrier) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case row, ok := <-r.jobs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				r.release([]model.PendingFulfillmentSync{row})
				return
			}
			// A retry that has started runs to completion so its outcome is recorded.
			r.handle(context.WithoutCancel(ctx), row)
		}
	}
}

func (r *SyncRetrier) handle(ctx context.Context, row model.PendingFulfillmentSync) {
	status, err := r.facade.RetryPendingSync(ctx, row)
	if err != nil {
		r.logger.Error("pending sync retry failed",
			slog.Int64("pending_sync_id", row.ID),
			slog.Int64("order_id", row.OrderID),
			slog.String("error", err.Error()),
		)
		return
	}
	if status == model.SyncStatusFailed {
		r.logger.Warn("pending sync gave up",
			slog.Int64("pending_sync_id", row.ID),
			slog.Int64("order_id", row.OrderID),
		)
	}
}

// release hands rows back for the next poll. Rows it cannot release are reclaimed once stale.
func (r *SyncRetrier) release(rows []model.PendingFulfillmentSync) {
	if len(rows) == 0 {
		return
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	released, err := r.facade.ReleasePendingSyncs(ctx, ids)
	if err != nil {
		r.logger.Error("release pending syncs failed",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
		return
	}
	r.logger.Info("released unprocessed pending syncs",
		slog.Int("claimed", len(ids)),
		slog.Int64("released", released),
	)
}
