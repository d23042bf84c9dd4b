package repository

import (
	"context"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

// OrderRepository reads orders outside of the shipment transaction.
type OrderRepository interface {
	GetForShipment(ctx context.Context, orderID int64) (*model.Order, error)
	ListPackages(ctx context.Context, orderID int64) ([]model.ShippingPackage, error)
}
