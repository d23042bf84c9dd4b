package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/polkiloo/warehouse/internal/adapter/queue"
	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
	"github.com/polkiloo/warehouse/internal/metrics"
)

const defaultReclaimAfter = 10 * time.Minute

// SyncUseCase re-enqueues fulfillment syncs that could not be delivered at ship time.
type SyncUseCase struct {
	pending      repository.PendingSyncRepository
	queue        queue.Queue
	maxAttempts  int
	reclaimAfter time.Duration
	now          func() time.Time
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewSyncUseCase constructs SyncUseCase. Rows left RETRYING for longer than reclaimAfter,
// e.g. by a crashed process, become claimable again.
func NewSyncUseCase(pending repository.PendingSyncRepository, q queue.Queue, maxAttempts int, reclaimAfter time.Duration, m *metrics.Metrics, logger *slog.Logger) *SyncUseCase {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if reclaimAfter <= 0 {
		reclaimAfter = defaultReclaimAfter
	}
	return &SyncUseCase{
		pending:      pending,
		queue:        q,
		maxAttempts:  maxAttempts,
		reclaimAfter: reclaimAfter,
		now:          time.Now,
		metrics:      m,
		logger:       logger,
	}
}

// ClaimBatch reserves up to limit pending or abandoned syncs for this process.
func (u *SyncUseCase) ClaimBatch(ctx context.Context, limit int) ([]model.PendingFulfillmentSync, error) {
	return u.pending.ClaimBatch(ctx, limit, u.now().Add(-u.reclaimAfter))
}

// Release hands claimed rows that were never retried back to PENDING.
func (u *SyncUseCase) Release(ctx context.Context, ids []int64) (int64, error) {
	return u.pending.Release(ctx, ids)
}

// Retry enqueues the stored job once more. A queue failure is recorded on the row and is
// not returned; only storage errors are.
func (u *SyncUseCase) Retry(ctx context.Context, p model.PendingFulfillmentSync) (model.SyncStatus, error) {
	if err := u.queue.EnqueueFulfillmentSync(ctx, p.Job); err != nil {
		u.observe(metrics.OutcomeFailure)
		status, markErr := u.pending.MarkFailed(ctx, p.ID, err.Error(), u.maxAttempts)
		if markErr != nil {
			return "", markErr
		}
		u.logger.Warn("fulfillment sync retry failed",
			slog.Int64("pending_sync_id", p.ID),
			slog.Int64("order_id", p.OrderID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return status, nil
	}

	u.observe(metrics.OutcomeSuccess)
	if err := u.pending.MarkSynced(ctx, p.ID); err != nil {
		return "", err
	}
	u.logger.Info("fulfillment sync delivered",
		slog.Int64("pending_sync_id", p.ID),
		slog.Int64("order_id", p.OrderID),
	)
	return model.SyncStatusSynced, nil
}

// RetryByID is the manual retry path. Synced rows are left alone.
func (u *SyncUseCase) RetryByID(ctx context.Context, id int64) (model.SyncStatus, error) {
	p, err := u.pending.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if p.Status == model.SyncStatusSynced {
		return p.Status, nil
	}
	return u.Retry(ctx, *p)
}

func (u *SyncUseCase) observe(outcome string) {
	if u.metrics == nil {
		return
	}
	u.metrics.SyncRetries.WithLabelValues(outcome).Inc()
}
