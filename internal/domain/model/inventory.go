package model

import "time"

// ReservationStatus describes a reservation hold state.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusFulfilled ReservationStatus = "FULFILLED"
)

// InventoryReservation holds stock of a variant at a location for an order.
// Quantity is the remaining reserved amount and only ever decreases.
type InventoryReservation struct {
	ID               int64
	OrderID          int64
	ProductVariantID int64
	LocationID       int64
	Quantity         int
	Status           ReservationStatus
	CreatedAt        time.Time
}

// Inventory is the stock level of a variant at a location.
type Inventory struct {
	ProductVariantID int64
	LocationID       int64
	QuantityOnHand   int
	QuantityReserved int
}

// TransactionType classifies inventory ledger rows.
type TransactionType string

const (
	TransactionTypeSale TransactionType = "SALE"
)

// ReferenceTypeShipment marks ledger rows written by shipment completion.
const ReferenceTypeShipment = "ORDER_SHIPMENT"

// InventoryTransaction is an immutable inventory ledger row.
type InventoryTransaction struct {
	ID               int64
	ProductVariantID int64
	LocationID       int64
	Type             TransactionType
	QuantityChange   int
	ReferenceID      int64
	ReferenceType    string
	UserID           int64
	Notes            string
	CreatedAt        time.Time
}

// ReservationRelease is one consumption step against a single reservation.
// Full is set when Quantity drains the reservation completely.
type ReservationRelease struct {
	Reservation InventoryReservation
	Quantity    int
	Full        bool
	UserID      int64
	Notes       string
}

// ReleaseSummary aggregates released quantity per product variant.
type ReleaseSummary struct {
	ProductVariantID int64
	SKU              string
	Quantity         int
}
