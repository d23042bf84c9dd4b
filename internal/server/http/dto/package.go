package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageResponse describes a labeled package of an order.
type PackageResponse struct {
	ID             int64                 `json:"id"`
	CarrierCode    string                `json:"carrierCode"`
	ServiceCode    string                `json:"serviceCode"`
	PackageCode    string                `json:"packageCode,omitempty"`
	TrackingNumber string                `json:"trackingNumber"`
	LabelURL       string                `json:"labelUrl"`
	Cost           decimal.Decimal       `json:"cost"`
	Currency       string                `json:"currency"`
	Weight         decimal.Decimal       `json:"weight"`
	Items          []PackageItemResponse `json:"items"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type PackageItemResponse struct {
	SKU         string          `json:"sku"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// SyncRetryResponse reports the status of a retried fulfillment sync.
type SyncRetryResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
