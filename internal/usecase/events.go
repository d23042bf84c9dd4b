package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/warehouse/internal/adapter/queue"
	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
	"github.com/polkiloo/warehouse/internal/metrics"
)

// Effect names used in logs and the side effect failure counter.
const (
	EffectPackTasks       = "pack_task_items"
	EffectAudit           = "audit"
	EffectShippingTask    = "shipping_task"
	EffectPackingSlip     = "packing_slip"
	EffectFulfillmentSync = "fulfillment_sync"
	EffectNotification    = "notification"
)

// Event is a side effect collected inside the shipment transaction and run after commit.
type Event interface {
	Effect() string
}

type PackTasksCompleted struct {
	OrderID int64
	UserID  int64
}

type CarrierSelected struct {
	OrderID     int64
	UserID      int64
	CarrierCode string
	ServiceCode string
}

type PackageWeighed struct {
	OrderID       int64
	UserID        int64
	PackageNumber int
	Weight        decimal.Decimal
}

type PackageMeasured struct {
	OrderID       int64
	UserID        int64
	PackageNumber int
	Dimensions    model.Dimensions
}

type LabelGenerated struct {
	OrderID int64
	UserID  int64
	Package model.ShippingPackage
}

type BatchLabelsGenerated struct {
	OrderID   int64
	UserID    int64
	Packages  []model.ShippingPackage
	TotalCost decimal.Decimal
}

type ShippingTaskCompleted struct {
	OrderID int64
	UserID  int64
	Notes   string
}

type PackingSlipRequested struct{ Job model.PackingSlipJob }

type FulfillmentSyncRequested struct{ Job model.FulfillmentSyncJob }

type NotificationRequested struct{ Job model.ShipmentNotificationJob }

func (PackTasksCompleted) Effect() string       { return EffectPackTasks }
func (CarrierSelected) Effect() string          { return EffectAudit }
func (PackageWeighed) Effect() string           { return EffectAudit }
func (PackageMeasured) Effect() string          { return EffectAudit }
func (LabelGenerated) Effect() string           { return EffectAudit }
func (BatchLabelsGenerated) Effect() string     { return EffectAudit }
func (ShippingTaskCompleted) Effect() string    { return EffectShippingTask }
func (PackingSlipRequested) Effect() string     { return EffectPackingSlip }
func (FulfillmentSyncRequested) Effect() string { return EffectFulfillmentSync }
func (NotificationRequested) Effect() string    { return EffectNotification }

// DispatchReport is what the caller learns from post-commit side effects.
type DispatchReport struct {
	Task        *model.ShippingTask
	PendingSync *model.PendingFulfillmentSync
	Failed      []string
}

// Dispatcher runs post-commit events one by one. A failing event is logged and counted
// and never stops the events after it.
type Dispatcher struct {
	audit   *AuditLogger
	queue   queue.Queue
	pending repository.PendingSyncRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher constructs Dispatcher.
func NewDispatcher(audit *AuditLogger, q queue.Queue, pending repository.PendingSyncRepository, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{audit: audit, queue: q, pending: pending, metrics: m, logger: logger}
}

// Dispatch runs events in order. The request context may already be done when the
// shipment commits, so events run on a context detached from its cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) DispatchReport {
	ctx = context.WithoutCancel(ctx)
	var report DispatchReport
	for _, ev := range events {
		if err := d.run(ctx, ev, &report); err != nil {
			report.Failed = append(report.Failed, ev.Effect())
			if d.metrics != nil {
				d.metrics.SideEffectFailures.WithLabelValues(ev.Effect()).Inc()
			}
			d.logger.Warn("post-commit side effect failed",
				slog.String("effect", ev.Effect()),
				slog.String("event", fmt.Sprintf("%T", ev)),
				slog.String("error", err.Error()),
			)
		}
	}
	return report
}

func (d *Dispatcher) run(ctx context.Context, ev Event, report *DispatchReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch e := ev.(type) {
	case PackTasksCompleted:
		_, err = d.audit.CompletePackTaskItems(ctx, e.OrderID, e.UserID)
		return err
	case CarrierSelected:
		return d.audit.LogCarrierSelected(ctx, e.OrderID, e.UserID, e.CarrierCode, e.ServiceCode)
	case PackageWeighed:
		return d.audit.LogPackageWeighed(ctx, e.OrderID, e.UserID, e.PackageNumber, e.Weight)
	case PackageMeasured:
		return d.audit.LogPackageDimensions(ctx, e.OrderID, e.UserID, e.PackageNumber, e.Dimensions)
	case LabelGenerated:
		return d.audit.LogLabelGenerated(ctx, e.OrderID, e.UserID, e.Package)
	case BatchLabelsGenerated:
		return d.audit.LogBatchLabelsGenerated(ctx, e.OrderID, e.UserID, e.Packages, e.TotalCost)
	case ShippingTaskCompleted:
		task, err := d.audit.CompleteShippingTask(ctx, e.OrderID, e.UserID, e.Notes)
		if task != nil {
			report.Task = task
		}
		return err
	case PackingSlipRequested:
		return d.queue.EnqueuePackingSlip(ctx, e.Job)
	case FulfillmentSyncRequested:
		return d.syncFulfillment(ctx, e.Job, report)
	case NotificationRequested:
		return d.queue.EnqueueShipmentNotification(ctx, e.Job)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}

// syncFulfillment falls back to a durable pending sync row when the queue is unavailable.
func (d *Dispatcher) syncFulfillment(ctx context.Context, job model.FulfillmentSyncJob, report *DispatchReport) error {
	enqueueErr := d.queue.EnqueueFulfillmentSync(ctx, job)
	if enqueueErr == nil {
		return nil
	}
	pending, err := d.pending.Create(ctx, job, enqueueErr.Error())
	if err != nil {
		d.logger.Error("fulfillment sync lost",
			slog.Int64("order_id", job.OrderID),
			slog.String("error", err.Error()),
		)
		return errors.Join(enqueueErr, fmt.Errorf("record pending sync: %w", err))
	}
	report.PendingSync = pending
	d.logger.Info("fulfillment sync deferred",
		slog.Int64("order_id", job.OrderID),
		slog.Int64("pending_sync_id", pending.ID),
	)
	return enqueueErr
}
