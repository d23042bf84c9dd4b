package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Address is a postal address used as ship-from or ship-to.
type Address struct {
	Name       string `json:"name,omitempty"`
	Company    string `json:"company,omitempty"`
	Line1      string `json:"address1"`
	Line2      string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// MissingFields lists the required address parts that are blank.
func (a Address) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "address1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	return missing
}

// Dimensions of a parcel.
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Unit   string          `json:"unit"`
}

// PackageItem is one line of a package manifest.
type PackageItem struct {
	SKU         string
	Quantity    int
	ProductName string
	UnitPrice   decimal.Decimal
}

// PackageSpec is a physical parcel requested for labeling.
type PackageSpec struct {
	Weight      decimal.Decimal
	Dimensions  *Dimensions
	PackageCode string
	Items       []PackageItem
}

// ShippingPackage is the persisted record of one labeled parcel.
type ShippingPackage struct {
	ID             int64
	OrderID        int64
	CarrierCode    string
	ServiceCode    string
	PackageCode    string
	TrackingNumber string
	LabelURL       string
	Cost           decimal.Decimal
	Currency       string
	Weight         decimal.Decimal
	Dimensions     *Dimensions
	Items          []ShippingPackageItem
	CreatedAt      time.Time
}

// ShippingPackageItem describes package contents.
type ShippingPackageItem struct {
	ID          int64
	PackageID   int64
	ProductName string
	SKU         string
	Quantity    int
	UnitPrice   decimal.Decimal
}
