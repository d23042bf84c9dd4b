package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/warehouse/internal/adapter/carrier"
	"github.com/polkiloo/warehouse/internal/adapter/queue"
	"github.com/polkiloo/warehouse/internal/config"
	"github.com/polkiloo/warehouse/internal/domain/repository"
	"github.com/polkiloo/warehouse/internal/metrics"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewReservationLedger,
	NewBackOrderReconciler,
	NewAuthUseCase,
	NewAuditLogger,
	NewDispatcher,
	NewShipmentUseCase,
	newSyncUseCase,
	func(c *carrier.Coordinator) LabelPurchaser { return c },
)

type syncParams struct {
	fx.In

	Pending repository.PendingSyncRepository
	Queue   queue.Queue
	Config  *config.Config
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func newSyncUseCase(p syncParams) *SyncUseCase {
	return NewSyncUseCase(p.Pending, p.Queue, p.Config.SyncMaxAttempts, p.Config.SyncReclaimAfter, p.Metrics, p.Logger)
}
