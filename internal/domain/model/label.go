package model

import "github.com/shopspring/decimal"

// LabelRequest is a normalized label purchase for one or more parcels.
type LabelRequest struct {
	CarrierCode string
	ServiceCode string
	ShipFrom    Address
	ShipTo      Address
	Packages    []PackageSpec
	Reference   string
}

// LabelPackage is a labeled parcel. Index points back into LabelRequest.Packages.
type LabelPackage struct {
	Index          int
	TrackingNumber string
	LabelURL       string
	TrackingURL    string
	Cost           decimal.Decimal
}

// LabelFailure is a parcel the carrier refused on the per-package path.
type LabelFailure struct {
	Index int
	Err   error
}

// LabelSet is the outcome of the label step, threaded into the shipment transaction.
type LabelSet struct {
	CarrierCode string
	ServiceCode string
	PerPackage  bool
	Packages    []LabelPackage
	Failures    []LabelFailure
	TotalCost   decimal.Decimal
	Currency    string
}

// TrackingNumbers returns tracking numbers in package order.
func (s *LabelSet) TrackingNumbers() []string {
	out := make([]string, 0, len(s.Packages))
	for _, p := range s.Packages {
		if p.TrackingNumber != "" {
			out = append(out, p.TrackingNumber)
		}
	}
	return out
}

// TrackingURLs returns the non-empty tracking URLs in package order.
func (s *LabelSet) TrackingURLs() []string {
	var out []string
	for _, p := range s.Packages {
		if p.TrackingURL != "" {
			out = append(out, p.TrackingURL)
		}
	}
	return out
}

// LabelURLs returns the non-empty label download URLs in package order.
func (s *LabelSet) LabelURLs() []string {
	var out []string
	for _, p := range s.Packages {
		if p.LabelURL != "" {
			out = append(out, p.LabelURL)
		}
	}
	return out
}
