package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

const (
	taskTypePacking   = "PACKING"
	taskTypeShipping  = "SHIPPING"
	taskStatusDone    = "COMPLETED"
	shippingTaskLabel = "SHP-"
)

var newTaskNumber = func() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return shippingTaskLabel + strings.ToUpper(id[:8])
}

// --- AuditRepository implementation ---

func (r *auditRepository) Record(ctx context.Context, entry model.AuditEntry) error {
	var details []byte
	if len(entry.Details) > 0 {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
	}
	const query = `INSERT INTO audit_logs (order_id, task_id, user_id, action, message, details)
                   VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.storage.pool.Exec(ctx, query, entry.OrderID, entry.TaskID, entry.UserID, entry.Action, entry.Message, details); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) CompletePackTaskItems(ctx context.Context, orderID, userID int64) (int64, error) {
	const query = `UPDATE task_items
                   SET status=$1, completed_by=$2, completed_at=NOW()
                   WHERE status <> $1
                     AND task_id IN (SELECT id FROM tasks WHERE order_id=$3 AND type=$4)`
	tag, err := r.storage.pool.Exec(ctx, query, taskStatusDone, userID, orderID, taskTypePacking)
	if err != nil {
		return 0, fmt.Errorf("complete pack task items: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *auditRepository) CompleteShippingTask(ctx context.Context, orderID, userID int64, notes string) (*model.ShippingTask, error) {
	const query = `INSERT INTO tasks (task_number, type, status, order_id, assigned_to, completed_by, completed_at, notes)
                   VALUES ($1, $2, $3, $4, $5, $5, NOW(), $6)
                   RETURNING id, completed_at`
	task := model.ShippingTask{TaskNumber: newTaskNumber(), OrderID: orderID, CompletedBy: userID}
	if err := r.storage.pool.QueryRow(ctx, query, task.TaskNumber, taskTypeShipping, taskStatusDone, orderID, userID, notes).
		Scan(&task.ID, &task.CompletedAt); err != nil {
		return nil, fmt.Errorf("insert shipping task: %w", err)
	}
	return &task, nil
}
