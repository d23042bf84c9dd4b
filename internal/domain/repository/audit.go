package repository

import (
	"context"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

// AuditRepository persists audit rows and shipping task bookkeeping.
type AuditRepository interface {
	Record(ctx context.Context, entry model.AuditEntry) error
	CompletePackTaskItems(ctx context.Context, orderID, userID int64) (int64, error)
	CompleteShippingTask(ctx context.Context, orderID, userID int64, notes string) (*model.ShippingTask, error)
}
