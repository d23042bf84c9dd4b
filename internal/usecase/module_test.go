package usecase

import (
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/warehouse/internal/adapter/carrier"
	"github.com/polkiloo/warehouse/internal/adapter/queue"
	"github.com/polkiloo/warehouse/internal/config"
	"github.com/polkiloo/warehouse/internal/domain/repository"
	"github.com/polkiloo/warehouse/internal/metrics"
	testhelpers "github.com/polkiloo/warehouse/internal/test"
)

func TestModuleBuildsUseCases(t *testing.T) {
	var (
		shipments *ShipmentUseCase
		syncs     *SyncUseCase
		labels    LabelPurchaser
	)

	m := metrics.New()
	app := fxtest.New(t,
		fx.Supply(
			&config.Config{SyncMaxAttempts: 4, Warehouse: config.Warehouse{City: "Reno"}},
			m,
			testLogger(),
			carrier.NewCoordinator(labelClientFunc(nil), 2, m, testLogger()),
		),
		fx.Provide(
			func() repository.OrderRepository { return &testhelpers.OrderRepositoryStub{} },
			func() repository.ShipmentUnitOfWork { return testhelpers.NewShipmentStore() },
			func() repository.AuditRepository { return &testhelpers.AuditRepositoryStub{} },
			func() repository.PendingSyncRepository { return &testhelpers.PendingSyncRepositoryStub{} },
			func() queue.Queue { return &testhelpers.QueueStub{} },
		),
		Module,
		fx.Populate(&shipments, &syncs, &labels),
	)
	app.RequireStart()
	app.RequireStop()

	if shipments == nil || shipments.shipFrom.City != "Reno" {
		t.Fatalf("unexpected shipment use case %+v", shipments)
	}
	if syncs == nil || syncs.maxAttempts != 4 {
		t.Fatalf("expected configured attempts, got %+v", syncs)
	}
	if _, ok := labels.(*carrier.Coordinator); !ok {
		t.Fatalf("expected coordinator as label purchaser, got %T", labels)
	}
}
