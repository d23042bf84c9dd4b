package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/metrics"
	testhelpers "github.com/polkiloo/warehouse/internal/test"
)

type dispatcherFixture struct {
	audit   *testhelpers.AuditRepositoryStub
	queue   *testhelpers.QueueStub
	pending *testhelpers.PendingSyncRepositoryStub
	metrics *metrics.Metrics
	d       *Dispatcher
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		audit:   &testhelpers.AuditRepositoryStub{},
		queue:   &testhelpers.QueueStub{},
		pending: &testhelpers.PendingSyncRepositoryStub{},
		metrics: metrics.New(),
	}
	f.d = NewDispatcher(NewAuditLogger(f.audit), f.queue, f.pending, f.metrics, testLogger())
	return f
}

func (f *dispatcherFixture) failures(effect string) float64 {
	return testutil.ToFloat64(f.metrics.SideEffectFailures.WithLabelValues(effect))
}

func sampleEvents() []Event {
	return []Event{
		PackTasksCompleted{OrderID: 1, UserID: 7},
		CarrierSelected{OrderID: 1, UserID: 7, CarrierCode: "ups", ServiceCode: "ups_ground"},
		PackageWeighed{OrderID: 1, UserID: 7, PackageNumber: 1, Weight: decimal.NewFromInt(2)},
		PackageMeasured{OrderID: 1, UserID: 7, PackageNumber: 1, Dimensions: model.Dimensions{Length: decimal.NewFromInt(10), Width: decimal.NewFromInt(8), Height: decimal.NewFromInt(4)}},
		LabelGenerated{OrderID: 1, UserID: 7, Package: model.ShippingPackage{ID: 10, TrackingNumber: "1ZA", CarrierCode: "ups"}},
		ShippingTaskCompleted{OrderID: 1, UserID: 7},
		PackingSlipRequested{Job: model.PackingSlipJob{OrderID: 1, PackageIDs: []int64{10}, OrderNumber: "ORD-1"}},
		FulfillmentSyncRequested{Job: model.FulfillmentSyncJob{OrderID: 1, ShopifyOrderID: "gid://shopify/Order/1"}},
		NotificationRequested{Job: model.ShipmentNotificationJob{OrderID: 1, CustomerEmail: "a@example.com"}},
	}
}

func TestDispatcherRunsEveryEvent(t *testing.T) {
	f := newDispatcherFixture()

	report := f.d.Dispatch(context.Background(), sampleEvents())

	if len(report.Failed) != 0 {
		t.Fatalf("unexpected failures %v", report.Failed)
	}
	if report.Task == nil || report.Task.OrderID != 1 {
		t.Fatalf("expected shipping task in report, got %+v", report.Task)
	}
	if report.PendingSync != nil {
		t.Fatalf("expected no pending sync, got %+v", report.PendingSync)
	}
	want := []model.AuditAction{
		model.AuditCarrierSelected,
		model.AuditPackageWeighed,
		model.AuditPackageDimensions,
		model.AuditLabelGenerated,
		model.AuditTaskCompleted,
	}
	if got := f.audit.Actions(); !slices.Equal(got, want) {
		t.Fatalf("expected audit trail %v, got %v", want, got)
	}
	if f.audit.PackTaskRuns != 1 || len(f.queue.PackingSlips) != 1 || len(f.queue.Fulfillments) != 1 || len(f.queue.Notifications) != 1 {
		t.Fatalf("expected every job enqueued once, got %+v", f.queue)
	}
}

func TestDispatcherIsolatesFailures(t *testing.T) {
	f := newDispatcherFixture()
	f.audit.RecordErr = errors.New("audit table locked")
	f.queue.PackingSlipErr = errors.New("broker down")

	report := f.d.Dispatch(context.Background(), sampleEvents())

	// Four audit events plus the task audit entry and the packing slip fail.
	wantFailed := []string{EffectAudit, EffectAudit, EffectAudit, EffectAudit, EffectShippingTask, EffectPackingSlip}
	if !slices.Equal(report.Failed, wantFailed) {
		t.Fatalf("expected failures %v, got %v", wantFailed, report.Failed)
	}
	if report.Task == nil {
		t.Fatal("task must be reported even when its audit entry fails")
	}
	if len(f.queue.Fulfillments) != 1 || len(f.queue.Notifications) != 1 {
		t.Fatal("later events must still run")
	}
	if got := f.failures(EffectAudit); got != 4 {
		t.Fatalf("expected 4 audit failures counted, got %v", got)
	}
	if got := f.failures(EffectPackingSlip); got != 1 {
		t.Fatalf("expected 1 packing slip failure counted, got %v", got)
	}
}

func TestDispatcherDefersFulfillmentSync(t *testing.T) {
	f := newDispatcherFixture()
	f.queue.FulfillmentErr = errors.New("broker down")

	report := f.d.Dispatch(context.Background(), sampleEvents())

	if report.PendingSync == nil {
		t.Fatal("expected pending sync recorded")
	}
	row, ok := f.pending.Row(report.PendingSync.ID)
	if !ok || row.Status != model.SyncStatusPending || row.LastError != "broker down" || row.Job.ShopifyOrderID != "gid://shopify/Order/1" {
		t.Fatalf("unexpected pending row %+v", row)
	}
	if !slices.Equal(report.Failed, []string{EffectFulfillmentSync}) {
		t.Fatalf("unexpected failures %v", report.Failed)
	}
	if len(f.queue.Notifications) != 1 {
		t.Fatal("notification must still be sent")
	}
}

func TestDispatcherReportsLostFulfillmentSync(t *testing.T) {
	f := newDispatcherFixture()
	f.queue.FulfillmentErr = errors.New("broker down")
	f.pending.CreateErr = errors.New("db down")

	report := f.d.Dispatch(context.Background(), []Event{
		FulfillmentSyncRequested{Job: model.FulfillmentSyncJob{OrderID: 1}},
	})

	if report.PendingSync != nil {
		t.Fatalf("expected no pending sync, got %+v", report.PendingSync)
	}
	if !slices.Equal(report.Failed, []string{EffectFulfillmentSync}) {
		t.Fatalf("unexpected failures %v", report.Failed)
	}
}

type unknownEvent struct{}

func (unknownEvent) Effect() string { return "unknown" }

func TestDispatcherRecoversAndRejectsUnknownEvents(t *testing.T) {
	f := newDispatcherFixture()
	// A nil queue makes the packing slip event panic.
	f.d.queue = nil

	report := f.d.Dispatch(context.Background(), []Event{
		PackingSlipRequested{Job: model.PackingSlipJob{OrderID: 1}},
		unknownEvent{},
		CarrierSelected{OrderID: 1, CarrierCode: "ups", ServiceCode: "ups_ground"},
	})

	if !slices.Equal(report.Failed, []string{EffectPackingSlip, "unknown"}) {
		t.Fatalf("unexpected failures %v", report.Failed)
	}
	if len(f.audit.Entries) != 1 {
		t.Fatalf("expected the audit event to run after the panic, got %d entries", len(f.audit.Entries))
	}
}

func TestDispatcherIgnoresCancellation(t *testing.T) {
	f := newDispatcherFixture()
	var seen error
	f.queue.FulfillmentFn = func(ctx context.Context, _ model.FulfillmentSyncJob) error {
		seen = ctx.Err()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.d.Dispatch(ctx, []Event{FulfillmentSyncRequested{Job: model.FulfillmentSyncJob{OrderID: 1}}})

	if seen != nil {
		t.Fatalf("expected detached context, got %v", seen)
	}
}
