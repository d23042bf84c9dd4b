package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
)

// AuditLogger writes human readable shipping audit entries and task bookkeeping.
type AuditLogger struct {
	repo repository.AuditRepository
}

// NewAuditLogger constructs AuditLogger.
func NewAuditLogger(repo repository.AuditRepository) *AuditLogger {
	return &AuditLogger{repo: repo}
}

func (a *AuditLogger) LogCarrierSelected(ctx context.Context, orderID, userID int64, carrierCode, serviceCode string) error {
	return a.repo.Record(ctx, model.AuditEntry{
		OrderID: orderID,
		UserID:  userID,
		Action:  model.AuditCarrierSelected,
		Message: fmt.Sprintf("Selected %s %s", carrierCode, serviceCode),
		Details: map[string]any{"carrier": carrierCode, "service": serviceCode},
	})
}

func (a *AuditLogger) LogPackageWeighed(ctx context.Context, orderID, userID int64, packageNumber int, weight decimal.Decimal) error {
	return a.repo.Record(ctx, model.AuditEntry{
		OrderID: orderID,
		UserID:  userID,
		Action:  model.AuditPackageWeighed,
		Message: fmt.Sprintf("Package %d weighed at %s lb", packageNumber, weight.String()),
		Details: map[string]any{"package": packageNumber, "weight": weight.String()},
	})
}

func (a *AuditLogger) LogPackageDimensions(ctx context.Context, orderID, userID int64, packageNumber int, d model.Dimensions) error {
	unit := d.Unit
	if unit == "" {
		unit = "inch"
	}
	return a.repo.Record(ctx, model.AuditEntry{
		OrderID: orderID,
		UserID:  userID,
		Action:  model.AuditPackageDimensions,
		Message: fmt.Sprintf("Package %d measured %sx%sx%s %s", packageNumber, d.Length, d.Width, d.Height, unit),
		Details: map[string]any{
			"package": packageNumber,
			"length":  d.Length.String(),
			"width":   d.Width.String(),
			"height":  d.Height.String(),
			"unit":    unit,
		},
	})
}

func (a *AuditLogger) LogLabelGenerated(ctx context.Context, orderID, userID int64, pkg model.ShippingPackage) error {
	return a.repo.Record(ctx, model.AuditEntry{
		OrderID: orderID,
		UserID:  userID,
		Action:  model.AuditLabelGenerated,
		Message: fmt.Sprintf("Label %s generated via %s", pkg.TrackingNumber, pkg.CarrierCode),
		Details: map[string]any{
			"packageId":      pkg.ID,
			"trackingNumber": pkg.TrackingNumber,
			"labelUrl":       pkg.LabelURL,
			"cost":           pkg.Cost.String(),
		},
	})
}

func (a *AuditLogger) LogBatchLabelsGenerated(ctx context.Context, orderID, userID int64, packages []model.ShippingPackage, total decimal.Decimal) error {
	tracking := make([]string, 0, len(packages))
	for _, pkg := range packages {
		tracking = append(tracking, pkg.TrackingNumber)
	}
	return a.repo.Record(ctx, model.AuditEntry{
		OrderID: orderID,
		UserID:  userID,
		Action:  model.AuditBatchLabelsGenerated,
		Message: fmt.Sprintf("%d labels generated", len(packages)),
		Details: map[string]any{"trackingNumbers": tracking, "totalCost": total.String()},
	})
}

// CompletePackTaskItems closes the order's open pack task lines.
func (a *AuditLogger) CompletePackTaskItems(ctx context.Context, orderID, userID int64) (int64, error) {
	return a.repo.CompletePackTaskItems(ctx, orderID, userID)
}

// CompleteShippingTask records the finished shipping task. The task is returned even
// when its audit entry could not be written.
func (a *AuditLogger) CompleteShippingTask(ctx context.Context, orderID, userID int64, notes string) (*model.ShippingTask, error) {
	task, err := a.repo.CompleteShippingTask(ctx, orderID, userID, notes)
	if err != nil {
		return nil, err
	}
	taskID := task.ID
	err = a.repo.Record(ctx, model.AuditEntry{
		OrderID: orderID,
		TaskID:  &taskID,
		UserID:  userID,
		Action:  model.AuditTaskCompleted,
		Message: fmt.Sprintf("Shipping task %s completed", task.TaskNumber),
	})
	return task, err
}
