package carrier

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type rawDownload struct {
	PDF  string `json:"pdf"`
	Href string `json:"href"`
}

func (d *rawDownload) url() string {
	if d == nil {
		return ""
	}
	if d.PDF != "" {
		return d.PDF
	}
	return d.Href
}

type rawMoney struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

type rawPackage struct {
	TrackingNumber string       `json:"tracking_number"`
	TrackingURL    string       `json:"tracking_url"`
	LabelDownload  *rawDownload `json:"label_download"`
}

// rawLabel mirrors every shape the label API answers with.
type rawLabel struct {
	LabelID        string       `json:"label_id"`
	TrackingNumber string       `json:"tracking_number"`
	TrackingURL    string       `json:"tracking_url"`
	LabelDownload  *rawDownload `json:"label_download"`
	ShipmentCost   *rawMoney    `json:"shipment_cost"`
	InsuranceCost  *rawMoney    `json:"insurance_cost"`
	Packages       []rawPackage `json:"packages"`
	Children       []rawPackage `json:"children"`
}

type rawError struct {
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (e rawError) text() string {
	for _, item := range e.Errors {
		if item.Message != "" {
			return item.Message
		}
	}
	return e.Message
}

type responseShape int

const (
	shapeFlat responseShape = iota
	shapePackages
	shapeChildren
)

func (s responseShape) String() string {
	switch s {
	case shapePackages:
		return "packages"
	case shapeChildren:
		return "children"
	default:
		return "flat"
	}
}

func classify(raw rawLabel) responseShape {
	switch {
	case len(raw.Packages) > 0:
		return shapePackages
	case len(raw.Children) > 0:
		return shapeChildren
	default:
		return shapeFlat
	}
}

var errMissingTracking = errors.New("carrier response missing tracking number")

// normalize converts any response shape into a Label with at least one package.
func normalize(raw rawLabel) (*Label, error) {
	label := &Label{
		LabelID:        raw.LabelID,
		TrackingNumber: raw.TrackingNumber,
		Cost:           decimal.Zero,
	}
	if raw.ShipmentCost != nil {
		label.Cost = raw.ShipmentCost.Amount
		label.Currency = raw.ShipmentCost.Currency
	}
	if raw.InsuranceCost != nil {
		label.Cost = label.Cost.Add(raw.InsuranceCost.Amount)
		if label.Currency == "" {
			label.Currency = raw.InsuranceCost.Currency
		}
	}

	var entries []rawPackage
	switch classify(raw) {
	case shapePackages:
		entries = raw.Packages
	case shapeChildren:
		entries = raw.Children
	case shapeFlat:
		entries = []rawPackage{{}}
	}

	label.Packages = make([]PackageLabel, 0, len(entries))
	for i, entry := range entries {
		pkg := PackageLabel{
			TrackingNumber: entry.TrackingNumber,
			TrackingURL:    entry.TrackingURL,
			LabelURL:       entry.LabelDownload.url(),
		}
		// Single-package answers often carry data only at the top level.
		if i == 0 {
			if pkg.TrackingNumber == "" {
				pkg.TrackingNumber = raw.TrackingNumber
			}
			if pkg.TrackingURL == "" {
				pkg.TrackingURL = raw.TrackingURL
			}
			if pkg.LabelURL == "" {
				pkg.LabelURL = raw.LabelDownload.url()
			}
		}
		if pkg.TrackingNumber == "" {
			return nil, fmt.Errorf("%w (package %d)", errMissingTracking, i+1)
		}
		if pkg.LabelURL == "" {
			pkg.LabelURL = raw.LabelDownload.url()
		}
		label.Packages = append(label.Packages, pkg)
	}
	if label.TrackingNumber == "" {
		label.TrackingNumber = label.Packages[0].TrackingNumber
	}
	return label, nil
}
