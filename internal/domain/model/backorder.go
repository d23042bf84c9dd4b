package model

import "time"

// BackOrderStatus mirrors the pick/pack lifecycle of a back order.
type BackOrderStatus string

const (
	BackOrderStatusPending   BackOrderStatus = "PENDING"
	BackOrderStatusAllocated BackOrderStatus = "ALLOCATED"
	BackOrderStatusPicking   BackOrderStatus = "PICKING"
	BackOrderStatusPicked    BackOrderStatus = "PICKED"
	BackOrderStatusPacked    BackOrderStatus = "PACKED"
	BackOrderStatusFulfilled BackOrderStatus = "FULFILLED"
)

// ActiveBackOrderStatuses have stock allocated and are released by the next shipment.
var ActiveBackOrderStatuses = []BackOrderStatus{
	BackOrderStatusAllocated,
	BackOrderStatusPicking,
	BackOrderStatusPicked,
	BackOrderStatusPacked,
}

// OutstandingBackOrderStatuses keep an order partially shipped.
var OutstandingBackOrderStatuses = []BackOrderStatus{
	BackOrderStatusPending,
	BackOrderStatusAllocated,
	BackOrderStatusPicking,
	BackOrderStatusPicked,
}

// BackOrder records quantity that could not be allocated at order time.
type BackOrder struct {
	ID                  int64
	OrderID             int64
	ProductVariantID    int64
	Status              BackOrderStatus
	QuantityBackOrdered int
	QuantityFulfilled   int
	FulfilledAt         *time.Time
}

// BackOrderFulfillment summarizes a back order closed by a shipment.
type BackOrderFulfillment struct {
	BackOrderID      int64
	ProductVariantID int64
	Quantity         int
}
