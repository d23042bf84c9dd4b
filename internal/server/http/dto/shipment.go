package dto

import "github.com/shopspring/decimal"

// CreateShipmentRequest is the body of POST /api/shipments.
type CreateShipmentRequest struct {
	OrderID         int64                `json:"orderId"`
	CarrierCode     string               `json:"carrierCode"`
	ServiceCode     string               `json:"serviceCode"`
	Packages        []PackageRequest     `json:"packages"`
	ShippingAddress *AddressRequest      `json:"shippingAddress"`
	Notes           string               `json:"notes"`
	Items           []PackageItemRequest `json:"items"`
}

// PackageRequest describes one parcel. Dimensions are optional and only sent when all three are set.
type PackageRequest struct {
	Weight      decimal.Decimal      `json:"weight"`
	Length      *decimal.Decimal     `json:"length"`
	Width       *decimal.Decimal     `json:"width"`
	Height      *decimal.Decimal     `json:"height"`
	PackageCode string               `json:"packageCode"`
	Items       []PackageItemRequest `json:"items"`
}

type PackageItemRequest struct {
	SKU         string           `json:"sku"`
	Quantity    int              `json:"quantity"`
	ProductName string           `json:"productName"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
}

type AddressRequest struct {
	Name       string `json:"name"`
	Company    string `json:"company"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// LabelResponse is one purchased label.
type LabelResponse struct {
	TrackingNumber string          `json:"trackingNumber"`
	Cost           decimal.Decimal `json:"cost"`
	LabelURL       string          `json:"labelUrl"`
	TrackingURL    string          `json:"trackingUrl,omitempty"`
}

// FailedLabelResponse is a parcel the carrier refused on the per-package path.
type FailedLabelResponse struct {
	PackageNumber int    `json:"packageNumber"`
	Error         string `json:"error"`
}

// ShipmentResponse is returned once the shipment is committed.
type ShipmentResponse struct {
	Success            bool                  `json:"success"`
	Label              LabelResponse         `json:"label"`
	Labels             []LabelResponse       `json:"labels"`
	FailedPackages     []FailedLabelResponse `json:"failedPackages,omitempty"`
	OrderID            int64                 `json:"orderId"`
	OrderNumber        string                `json:"orderNumber"`
	ShippingStatus     string                `json:"shippingStatus"`
	ShippingTaskID     *int64                `json:"shippingTaskId"`
	ShippingTaskNumber *string               `json:"shippingTaskNumber"`
	PendingSyncID      *int64                `json:"pendingSyncId,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}
