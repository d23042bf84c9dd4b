package app

import (
	"context"

	"go.uber.org/fx"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/usecase"
)

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type facadeParams struct {
	fx.In

	Auth      *usecase.AuthUseCase
	Shipments *usecase.ShipmentUseCase
	Syncs     *usecase.SyncUseCase
	Health    HealthChecker
}

// WarehouseFacade is the single entry point used by HTTP handlers and the retry worker.
type WarehouseFacade struct {
	auth      *usecase.AuthUseCase
	shipments *usecase.ShipmentUseCase
	syncs     *usecase.SyncUseCase
	health    HealthChecker
}

func NewWarehouseFacade(p facadeParams) *WarehouseFacade {
	return &WarehouseFacade{auth: p.Auth, shipments: p.Shipments, syncs: p.Syncs, health: p.Health}
}

func (f *WarehouseFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *WarehouseFacade) CreateShipment(ctx context.Context, in usecase.CreateShipmentInput) (*usecase.ShipmentResult, error) {
	return f.shipments.CreateShipment(ctx, in)
}

func (f *WarehouseFacade) OrderPackages(ctx context.Context, orderID int64) ([]model.ShippingPackage, error) {
	return f.shipments.OrderPackages(ctx, orderID)
}

func (f *WarehouseFacade) RetryFulfillmentSync(ctx context.Context, id int64) (model.SyncStatus, error) {
	return f.syncs.RetryByID(ctx, id)
}

func (f *WarehouseFacade) PendingSyncsForRetry(ctx context.Context, limit int) ([]model.PendingFulfillmentSync, error) {
	return f.syncs.ClaimBatch(ctx, limit)
}

func (f *WarehouseFacade) ReleasePendingSyncs(ctx context.Context, ids []int64) (int64, error) {
	return f.syncs.Release(ctx, ids)
}

func (f *WarehouseFacade) RetryPendingSync(ctx context.Context, p model.PendingFulfillmentSync) (model.SyncStatus, error) {
	return f.syncs.Retry(ctx, p)
}

func (f *WarehouseFacade) HealthCheck(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}
