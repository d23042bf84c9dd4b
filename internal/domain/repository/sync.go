package repository

import (
	"context"
	"time"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

// PendingSyncRepository stores fulfillment syncs awaiting retry.
type PendingSyncRepository interface {
	Create(ctx context.Context, job model.FulfillmentSyncJob, lastError string) (*model.PendingFulfillmentSync, error)
	GetByID(ctx context.Context, id int64) (*model.PendingFulfillmentSync, error)
	// ClaimBatch moves up to limit PENDING rows, plus RETRYING rows last touched before
	// staleBefore, to RETRYING and returns them.
	ClaimBatch(ctx context.Context, limit int, staleBefore time.Time) ([]model.PendingFulfillmentSync, error)
	// Release returns claimed RETRYING rows to PENDING without counting an attempt.
	Release(ctx context.Context, ids []int64) (int64, error)
	MarkSynced(ctx context.Context, id int64) error
	// MarkFailed records a failed attempt and returns the resulting status.
	MarkFailed(ctx context.Context, id int64, lastError string, maxAttempts int) (model.SyncStatus, error)
}
