package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "PENDING"
	OrderStatusAllocated        OrderStatus = "ALLOCATED"
	OrderStatusPicking          OrderStatus = "PICKING"
	OrderStatusPicked           OrderStatus = "PICKED"
	OrderStatusPacked           OrderStatus = "PACKED"
	OrderStatusShipped          OrderStatus = "SHIPPED"
	OrderStatusPartiallyShipped OrderStatus = "PARTIALLY_SHIPPED"
	OrderStatusFulfilled        OrderStatus = "FULFILLED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusReturned         OrderStatus = "RETURNED"
)

// Shippable reports whether labels may be purchased for an order in this status.
// Partially shipped orders may ship again.
func (s OrderStatus) Shippable() bool {
	switch s {
	case OrderStatusPacked, OrderStatusShipped, OrderStatusPartiallyShipped:
		return true
	default:
		return false
	}
}

// ShippingStatus is the order level shipment state written on completion.
type ShippingStatus string

const (
	ShippingStatusShipped          ShippingStatus = "SHIPPED"
	ShippingStatusPartiallyShipped ShippingStatus = "PARTIALLY_SHIPPED"
)

// Order is the shipment-relevant view of a customer order.
// Tracking numbers, label URLs, carriers and services are comma-joined lists.
type Order struct {
	ID              int64
	OrderNumber     string
	Status          OrderStatus
	ShippingStatus  ShippingStatus
	TrackingNumber  string
	TrackingURL     string
	ShippingCost    decimal.Decimal
	ShippingCarrier string
	ShippingService string
	LabelURL        string
	Notes           string
	ShopifyOrderID  *string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress *Address
	ShippedAt       *time.Time
	UpdatedAt       time.Time
	Items           []OrderItem
}

// OrderItem is an ordered line referencing a product variant.
type OrderItem struct {
	ID                int64
	OrderID           int64
	ProductVariantID  int64
	SKU               string
	ProductName       string
	Quantity          int
	UnitPrice         decimal.Decimal
	ExternalVariantID *string
}

// ItemBySKU returns the first order item carrying sku.
func (o *Order) ItemBySKU(sku string) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.SKU == sku {
			return item, true
		}
	}
	return OrderItem{}, false
}

// OrderStatusChange is an append-only status history record.
type OrderStatusChange struct {
	OrderID    int64
	FromStatus OrderStatus
	ToStatus   OrderStatus
	ChangedBy  int64
	Notes      string
}
