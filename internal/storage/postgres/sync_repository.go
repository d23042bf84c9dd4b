package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
)

const pendingSyncColumns = `id, order_id, payload, status, attempts, last_error, created_at, updated_at`

func scanPendingSync(row pgx.Row) (*model.PendingFulfillmentSync, error) {
	var (
		p       model.PendingFulfillmentSync
		payload []byte
	)
	if err := row.Scan(&p.ID, &p.OrderID, &payload, &p.Status, &p.Attempts, &p.LastError, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &p.Job); err != nil {
		return nil, fmt.Errorf("decode pending sync %d: %w", p.ID, err)
	}
	return &p, nil
}

// --- PendingSyncRepository implementation ---

func (r *pendingSyncRepository) Create(ctx context.Context, job model.FulfillmentSyncJob, lastError string) (*model.PendingFulfillmentSync, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode fulfillment job: %w", err)
	}
	const query = `INSERT INTO pending_fulfillment_syncs (order_id, payload, status, attempts, last_error)
                   VALUES ($1, $2, $3, 0, $4)
                   RETURNING id, created_at, updated_at`
	p := model.PendingFulfillmentSync{OrderID: job.OrderID, Job: job, Status: model.SyncStatusPending, LastError: lastError}
	if err := r.storage.pool.QueryRow(ctx, query, job.OrderID, payload, model.SyncStatusPending, lastError).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert pending sync: %w", err)
	}
	return &p, nil
}

func (r *pendingSyncRepository) GetByID(ctx context.Context, id int64) (*model.PendingFulfillmentSync, error) {
	query := `SELECT ` + pendingSyncColumns + ` FROM pending_fulfillment_syncs WHERE id=$1`
	p, err := scanPendingSync(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *pendingSyncRepository) ClaimBatch(ctx context.Context, limit int, staleBefore time.Time) ([]model.PendingFulfillmentSync, error) {
	selectQuery := `SELECT ` + pendingSyncColumns + `
                    FROM pending_fulfillment_syncs
                    WHERE status='PENDING' OR (status='RETRYING' AND updated_at < $2)
                    ORDER BY created_at, id
                    LIMIT $1
                    FOR UPDATE SKIP LOCKED`

	var claimed []model.PendingFulfillmentSync
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit, staleBefore)
		if err != nil {
			return err
		}
		defer rows.Close()

		var ids []int64
		for rows.Next() {
			p, err := scanPendingSync(rows)
			if err != nil {
				return err
			}
			p.Status = model.SyncStatusRetrying
			claimed = append(claimed, *p)
			ids = append(ids, p.ID)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}
		const claim = `UPDATE pending_fulfillment_syncs SET status='RETRYING', updated_at=NOW() WHERE id = ANY($1)`
		_, err = tx.Exec(ctx, claim, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *pendingSyncRepository) Release(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `UPDATE pending_fulfillment_syncs SET status='PENDING', updated_at=NOW() WHERE id = ANY($1) AND status='RETRYING'`
	tag, err := r.storage.pool.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("release pending syncs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pendingSyncRepository) MarkSynced(ctx context.Context, id int64) error {
	const query = `UPDATE pending_fulfillment_syncs SET status='SYNCED', last_error='', updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *pendingSyncRepository) MarkFailed(ctx context.Context, id int64, lastError string, maxAttempts int) (model.SyncStatus, error) {
	const query = `UPDATE pending_fulfillment_syncs
                   SET attempts = attempts + 1,
                       last_error = $2,
                       status = CASE WHEN attempts + 1 >= $3 THEN 'FAILED' ELSE 'PENDING' END,
                       updated_at = NOW()
                   WHERE id=$1
                   RETURNING status`
	var status model.SyncStatus
	if err := r.storage.pool.QueryRow(ctx, query, id, lastError, maxAttempts).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domainErrors.ErrNotFound
		}
		return "", err
	}
	return status, nil
}
