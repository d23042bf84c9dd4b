package facades

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/warehouse/internal/domain/model"
	testhelpers "github.com/polkiloo/warehouse/internal/test"
	"github.com/polkiloo/warehouse/internal/usecase"
)

// ShipmentFacadeStub provides controllable behaviour for shipment endpoints.
type ShipmentFacadeStub struct {
	CreateFn   func(context.Context, usecase.CreateShipmentInput) (*usecase.ShipmentResult, error)
	PackagesFn func(context.Context, int64) ([]model.ShippingPackage, error)
}

// CreateShipment delegates to provided function or returns a one-package shipment.
func (s ShipmentFacadeStub) CreateShipment(ctx context.Context, in usecase.CreateShipmentInput) (*usecase.ShipmentResult, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, in)
	}
	return SampleShipmentResult(in.OrderID), nil
}

// OrderPackages returns predefined packages for given order.
func (s ShipmentFacadeStub) OrderPackages(ctx context.Context, orderID int64) ([]model.ShippingPackage, error) {
	if s.PackagesFn != nil {
		return s.PackagesFn(ctx, orderID)
	}
	return []model.ShippingPackage{{ID: 10, OrderID: orderID, TrackingNumber: "1ZA", CreatedAt: time.Unix(0, 0).UTC()}}, nil
}

// SyncFacadeStub simulates manual fulfillment sync retries.
type SyncFacadeStub struct {
	RetryFn func(context.Context, int64) (model.SyncStatus, error)
}

func (s SyncFacadeStub) RetryFulfillmentSync(ctx context.Context, id int64) (model.SyncStatus, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, id)
	}
	return model.SyncStatusSynced, nil
}

// HealthFacadeStub reports the configured health error.
type HealthFacadeStub struct {
	Err error
}

func (s HealthFacadeStub) HealthCheck(context.Context) error {
	return s.Err
}

// WarehouseFacadeStub aggregates facade dependencies for HTTP layer tests.
type WarehouseFacadeStub struct {
	testhelpers.TokenParserStub
	ShipmentFacadeStub
	SyncFacadeStub
	HealthFacadeStub
}

// SampleShipmentResult is a committed single-label shipment.
func SampleShipmentResult(orderID int64) *usecase.ShipmentResult {
	taskID := int64(55)
	return &usecase.ShipmentResult{
		Order: &model.Order{ID: orderID, OrderNumber: "ORD-1001", ShippingStatus: model.ShippingStatusShipped},
		Labels: &model.LabelSet{
			CarrierCode: "ups",
			ServiceCode: "ups_ground",
			TotalCost:   decimal.RequireFromString("12.40"),
			Packages: []model.LabelPackage{
				{TrackingNumber: "1ZA", LabelURL: "https://labels/a.pdf", TrackingURL: "https://track/a", Cost: decimal.RequireFromString("12.40")},
			},
		},
		Packages: []model.ShippingPackage{{ID: 10, OrderID: orderID, TrackingNumber: "1ZA", Cost: decimal.RequireFromString("12.40")}},
		Task:     &model.ShippingTask{ID: taskID, TaskNumber: "SHP-0A1B2C3D", OrderID: orderID},
	}
}
