package handlers

import (
	"context"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/usecase"
)

// TokenParser resolves the acting user from a bearer token.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// ShipmentFacade exposes shipment completion to HTTP.
type ShipmentFacade interface {
	CreateShipment(ctx context.Context, in usecase.CreateShipmentInput) (*usecase.ShipmentResult, error)
	OrderPackages(ctx context.Context, orderID int64) ([]model.ShippingPackage, error)
}

// SyncFacade exposes manual fulfillment sync retries.
type SyncFacade interface {
	RetryFulfillmentSync(ctx context.Context, id int64) (model.SyncStatus, error)
}

type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// WarehouseFacade aggregates the full set of operations used across handlers.
type WarehouseFacade interface {
	TokenParser
	ShipmentFacade
	SyncFacade
	HealthFacade
}
