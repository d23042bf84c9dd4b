package model

import "time"

// PackingSlipJob asks the document worker to render packing slips.
type PackingSlipJob struct {
	OrderID     int64   `json:"orderId"`
	PackageIDs  []int64 `json:"packageIds"`
	OrderNumber string  `json:"orderNumber"`
}

// FulfillmentLineItem is one line pushed to the e-commerce platform.
type FulfillmentLineItem struct {
	VariantID *string `json:"variantId,omitempty"`
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
}

// FulfillmentSyncJob pushes tracking data to the e-commerce platform.
type FulfillmentSyncJob struct {
	OrderID         int64                 `json:"orderId"`
	ShopifyOrderID  string                `json:"shopifyOrderId"`
	TrackingNumbers []string              `json:"trackingNumbers"`
	TrackingURLs    []string              `json:"trackingUrls"`
	Carrier         string                `json:"carrier"`
	LineItems       []FulfillmentLineItem `json:"lineItems"`
	IsBackOrder     bool                  `json:"isBackOrder"`
}

// NotificationTypeShipped is the notification sent when labels are created.
const NotificationTypeShipped = "SHIPPED"

// ShipmentNotificationJob asks the notifier to email the customer.
type ShipmentNotificationJob struct {
	OrderID         int64    `json:"orderId"`
	OrderNumber     string   `json:"orderNumber"`
	UserID          int64    `json:"userId"`
	CustomerEmail   string   `json:"customerEmail"`
	Type            string   `json:"type"`
	TrackingNumbers []string `json:"trackingNumbers"`
}

// SyncStatus is the retry state of a pending fulfillment sync.
type SyncStatus string

const (
	SyncStatusPending  SyncStatus = "PENDING"
	SyncStatusRetrying SyncStatus = "RETRYING"
	SyncStatusSynced   SyncStatus = "SYNCED"
	SyncStatusFailed   SyncStatus = "FAILED"
)

// PendingFulfillmentSync is a fulfillment sync that could not be enqueued.
type PendingFulfillmentSync struct {
	ID        int64
	OrderID   int64
	Job       FulfillmentSyncJob
	Status    SyncStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
