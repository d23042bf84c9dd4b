package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
)

// OrderRepositoryStub serves orders and packages from maps unless overridden.
type OrderRepositoryStub struct {
	GetForShipmentFn func(context.Context, int64) (*model.Order, error)
	ListPackagesFn   func(context.Context, int64) ([]model.ShippingPackage, error)

	Orders   map[int64]*model.Order
	Packages map[int64][]model.ShippingPackage
	Calls    int
}

// GetForShipment returns a copy of the stored order.
func (s *OrderRepositoryStub) GetForShipment(ctx context.Context, orderID int64) (*model.Order, error) {
	s.Calls++
	if s.GetForShipmentFn != nil {
		return s.GetForShipmentFn(ctx, orderID)
	}
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

// ListPackages returns stored packages or not found for unknown orders.
func (s *OrderRepositoryStub) ListPackages(ctx context.Context, orderID int64) ([]model.ShippingPackage, error) {
	if s.ListPackagesFn != nil {
		return s.ListPackagesFn(ctx, orderID)
	}
	if _, ok := s.Orders[orderID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	return s.Packages[orderID], nil
}

// AuditRepositoryStub records audit rows and task completions.
type AuditRepositoryStub struct {
	RecordErr       error
	PackTasksErr    error
	ShippingTaskErr error
	TaskID          int64

	mu           sync.Mutex
	Entries      []model.AuditEntry
	PackTaskRuns int
	Tasks        []model.ShippingTask
}

// Record stores entry unless RecordErr is set.
func (s *AuditRepositoryStub) Record(ctx context.Context, entry model.AuditEntry) error {
	if s.RecordErr != nil {
		return s.RecordErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append(s.Entries, entry)
	return nil
}

// CompletePackTaskItems counts invocations.
func (s *AuditRepositoryStub) CompletePackTaskItems(ctx context.Context, orderID, userID int64) (int64, error) {
	if s.PackTasksErr != nil {
		return 0, s.PackTasksErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PackTaskRuns++
	return 1, nil
}

// CompleteShippingTask returns a deterministic task.
func (s *AuditRepositoryStub) CompleteShippingTask(ctx context.Context, orderID, userID int64, notes string) (*model.ShippingTask, error) {
	if s.ShippingTaskErr != nil {
		return nil, s.ShippingTaskErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.TaskID
	if id == 0 {
		id = int64(len(s.Tasks) + 1)
	}
	task := model.ShippingTask{ID: id, TaskNumber: fmt.Sprintf("SHP-%08X", id), OrderID: orderID, CompletedBy: userID, CompletedAt: time.Unix(0, 0)}
	s.Tasks = append(s.Tasks, task)
	return &task, nil
}

// Actions lists recorded audit actions in order.
func (s *AuditRepositoryStub) Actions() []model.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditAction, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, e.Action)
	}
	return out
}

// PendingSyncRepositoryStub keeps pending fulfillment syncs in memory.
type PendingSyncRepositoryStub struct {
	CreateErr     error
	ClaimErr      error
	MarkErr       error
	ReleaseErr    error
	ClaimFn       func(context.Context, int, time.Time) ([]model.PendingFulfillmentSync, error)
	mu            sync.Mutex
	Rows          map[int64]*model.PendingFulfillmentSync
	next          int64
	SyncedIDs     []int64
	FailedIDs     []int64
	ClaimedLimits []int
	ReleasedIDs   []int64
}

// Create stores a PENDING row.
func (s *PendingSyncRepositoryStub) Create(ctx context.Context, job model.FulfillmentSyncJob, lastError string) (*model.PendingFulfillmentSync, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Rows == nil {
		s.Rows = make(map[int64]*model.PendingFulfillmentSync)
	}
	s.next++
	row := &model.PendingFulfillmentSync{ID: s.next, OrderID: job.OrderID, Job: job, Status: model.SyncStatusPending, LastError: lastError}
	s.Rows[row.ID] = row
	clone := *row
	return &clone, nil
}

// GetByID returns a stored row or not found.
func (s *PendingSyncRepositoryStub) GetByID(ctx context.Context, id int64) (*model.PendingFulfillmentSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.Rows[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	clone := *row
	return &clone, nil
}

// ClaimBatch moves PENDING rows and RETRYING rows untouched since staleBefore to RETRYING.
func (s *PendingSyncRepositoryStub) ClaimBatch(ctx context.Context, limit int, staleBefore time.Time) ([]model.PendingFulfillmentSync, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit, staleBefore)
	}
	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClaimedLimits = append(s.ClaimedLimits, limit)
	var out []model.PendingFulfillmentSync
	for id := int64(1); id <= s.next && len(out) < limit; id++ {
		row, ok := s.Rows[id]
		if !ok {
			continue
		}
		stale := row.Status == model.SyncStatusRetrying && row.UpdatedAt.Before(staleBefore)
		if row.Status != model.SyncStatusPending && !stale {
			continue
		}
		row.Status = model.SyncStatusRetrying
		row.UpdatedAt = time.Now()
		out = append(out, *row)
	}
	return out, nil
}

// Release puts RETRYING rows back to PENDING.
func (s *PendingSyncRepositoryStub) Release(ctx context.Context, ids []int64) (int64, error) {
	if s.ReleaseErr != nil {
		return 0, s.ReleaseErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var released int64
	for _, id := range ids {
		row, ok := s.Rows[id]
		if !ok || row.Status != model.SyncStatusRetrying {
			continue
		}
		row.Status = model.SyncStatusPending
		s.ReleasedIDs = append(s.ReleasedIDs, id)
		released++
	}
	return released, nil
}

// MarkSynced flags a row as delivered.
func (s *PendingSyncRepositoryStub) MarkSynced(ctx context.Context, id int64) error {
	if s.MarkErr != nil {
		return s.MarkErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.Rows[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	row.Status = model.SyncStatusSynced
	row.LastError = ""
	s.SyncedIDs = append(s.SyncedIDs, id)
	return nil
}

// MarkFailed counts an attempt and fails the row once maxAttempts is reached.
func (s *PendingSyncRepositoryStub) MarkFailed(ctx context.Context, id int64, lastError string, maxAttempts int) (model.SyncStatus, error) {
	if s.MarkErr != nil {
		return "", s.MarkErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.Rows[id]
	if !ok {
		return "", domainErrors.ErrNotFound
	}
	row.Attempts++
	row.LastError = lastError
	row.Status = model.SyncStatusPending
	if row.Attempts >= maxAttempts {
		row.Status = model.SyncStatusFailed
	}
	s.FailedIDs = append(s.FailedIDs, id)
	return row.Status, nil
}

// Row returns a snapshot of one stored row.
func (s *PendingSyncRepositoryStub) Row(id int64) (model.PendingFulfillmentSync, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.Rows[id]
	if !ok {
		return model.PendingFulfillmentSync{}, false
	}
	return *row, true
}

// Seed stores row under the next id and returns it.
func (s *PendingSyncRepositoryStub) Seed(row model.PendingFulfillmentSync) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Rows == nil {
		s.Rows = make(map[int64]*model.PendingFulfillmentSync)
	}
	s.next++
	row.ID = s.next
	s.Rows[row.ID] = &row
	return row.ID
}
