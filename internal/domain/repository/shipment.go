package repository

import (
	"context"
	"time"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

// ShipmentTx is the set of writes performed atomically when a shipment completes.
// Implementations hold row locks on everything they read until the unit of work ends.
type ShipmentTx interface {
	LockOrder(ctx context.Context, orderID int64) (*model.Order, error)
	// ActiveReservations returns ACTIVE reservations newest first.
	ActiveReservations(ctx context.Context, orderID, productVariantID int64) ([]model.InventoryReservation, error)
	ReleaseReservation(ctx context.Context, release model.ReservationRelease) error
	CreatePackage(ctx context.Context, pkg *model.ShippingPackage) error
	ActiveBackOrders(ctx context.Context, orderID int64) ([]model.BackOrder, error)
	FulfillBackOrder(ctx context.Context, backOrderID int64, quantity int, at time.Time) error
	HasOutstandingBackOrders(ctx context.Context, orderID int64) (bool, error)
	UpdateOrderShipment(ctx context.Context, order *model.Order) error
	AppendStatusHistory(ctx context.Context, change model.OrderStatusChange) error
}

// ShipmentUnitOfWork runs fn inside one transaction, rolling back when fn fails.
type ShipmentUnitOfWork interface {
	WithinShipment(ctx context.Context, fn func(ShipmentTx) error) error
}
