package model

import "time"

// AuditAction names a recorded shipping step.
type AuditAction string

const (
	AuditCarrierSelected      AuditAction = "CARRIER_SELECTED"
	AuditPackageWeighed       AuditAction = "PACKAGE_WEIGHED"
	AuditPackageDimensions    AuditAction = "PACKAGE_DIMENSIONS"
	AuditLabelGenerated       AuditAction = "LABEL_GENERATED"
	AuditBatchLabelsGenerated AuditAction = "BATCH_LABELS_GENERATED"
	AuditTaskCompleted        AuditAction = "TASK_COMPLETED"
)

// AuditEntry is a human readable audit log row.
type AuditEntry struct {
	ID        int64
	OrderID   int64
	TaskID    *int64
	UserID    int64
	Action    AuditAction
	Message   string
	Details   map[string]any
	CreatedAt time.Time
}

// ShippingTask is the completed shipping work item returned to the caller.
type ShippingTask struct {
	ID          int64
	TaskNumber  string
	OrderID     int64
	CompletedBy int64
	CompletedAt time.Time
}
