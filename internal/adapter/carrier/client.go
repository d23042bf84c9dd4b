package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
)

// Label is a normalized label API answer.
type Label struct {
	LabelID        string
	TrackingNumber string
	Cost           decimal.Decimal
	Currency       string
	Packages       []PackageLabel
}

// PackageLabel is one parcel inside a Label.
type PackageLabel struct {
	TrackingNumber string
	LabelURL       string
	TrackingURL    string
}

// Client purchases labels from the multi-carrier API.
type Client interface {
	CreateLabel(ctx context.Context, req model.LabelRequest) (*Label, error)
}

// HTTPClient implements Client via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type addressBody struct {
	Name                        string `json:"name"`
	CompanyName                 string `json:"company_name,omitempty"`
	Phone                       string `json:"phone,omitempty"`
	AddressLine1                string `json:"address_line1"`
	AddressLine2                string `json:"address_line2,omitempty"`
	CityLocality                string `json:"city_locality"`
	StateProvince               string `json:"state_province"`
	PostalCode                  string `json:"postal_code"`
	CountryCode                 string `json:"country_code"`
	AddressResidentialIndicator string `json:"address_residential_indicator"`
}

type weightBody struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type dimensionsBody struct {
	Unit   string  `json:"unit"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type labelMessages struct {
	Reference1 string `json:"reference1,omitempty"`
}

type packageBody struct {
	PackageCode   string          `json:"package_code,omitempty"`
	Weight        weightBody      `json:"weight"`
	Dimensions    *dimensionsBody `json:"dimensions,omitempty"`
	LabelMessages *labelMessages  `json:"label_messages,omitempty"`
}

type shipmentBody struct {
	CarrierCode string        `json:"carrier_code"`
	ServiceCode string        `json:"service_code"`
	ShipFrom    addressBody   `json:"ship_from"`
	ShipTo      addressBody   `json:"ship_to"`
	Packages    []packageBody `json:"packages"`
}

type labelRequestBody struct {
	Shipment          shipmentBody `json:"shipment"`
	LabelFormat       string       `json:"label_format"`
	LabelLayout       string       `json:"label_layout"`
	LabelDownloadType string       `json:"label_download_type"`
}

// NewHTTPClient creates label API client with the given timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse carrier url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("carrier url must be absolute")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// CreateLabel purchases one label covering every package in req.
func (c *HTTPClient) CreateLabel(ctx context.Context, req model.LabelRequest) (*Label, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/v1/labels")

	payload, err := json.Marshal(buildRequestBody(req))
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(req, http.StatusBadGateway, "carrier request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(req, resp.StatusCode, "read carrier response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr rawError
		_ = json.Unmarshal(body, &apiErr)
		c.logger.Error("carrier label request failed",
			slog.String("carrier", req.CarrierCode),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, &domainErrors.CarrierError{
			Carrier:    req.CarrierCode,
			StatusCode: resp.StatusCode,
			Message:    apiErr.text(),
		}
	}

	var raw rawLabel
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, c.fail(req, resp.StatusCode, "decode carrier response", err)
	}
	label, err := normalize(raw)
	if err != nil {
		return nil, c.fail(req, resp.StatusCode, "invalid carrier response", err)
	}
	c.logger.Debug("carrier label created",
		slog.String("carrier", req.CarrierCode),
		slog.String("shape", classify(raw).String()),
		slog.Int("packages", len(label.Packages)),
	)
	return label, nil
}

// fail reports a call that produced no usable label as a CarrierError.
func (c *HTTPClient) fail(req model.LabelRequest, status int, msg string, err error) error {
	c.logger.Error("carrier label request failed",
		slog.String("carrier", req.CarrierCode),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	return &domainErrors.CarrierError{
		Carrier:    req.CarrierCode,
		StatusCode: status,
		Message:    fmt.Sprintf("%s: %v", msg, err),
		Err:        err,
	}
}

func buildRequestBody(req model.LabelRequest) labelRequestBody {
	ref := TruncateReference(req.CarrierCode, req.Reference)
	packages := make([]packageBody, 0, len(req.Packages))
	for _, p := range req.Packages {
		body := packageBody{
			PackageCode: p.PackageCode,
			Weight:      weightBody{Value: p.Weight.InexactFloat64(), Unit: "pound"},
		}
		if p.Dimensions != nil {
			unit := p.Dimensions.Unit
			if unit == "" {
				unit = "inch"
			}
			body.Dimensions = &dimensionsBody{
				Unit:   unit,
				Length: p.Dimensions.Length.InexactFloat64(),
				Width:  p.Dimensions.Width.InexactFloat64(),
				Height: p.Dimensions.Height.InexactFloat64(),
			}
		}
		if ref != "" {
			body.LabelMessages = &labelMessages{Reference1: ref}
		}
		packages = append(packages, body)
	}

	return labelRequestBody{
		Shipment: shipmentBody{
			CarrierCode: req.CarrierCode,
			ServiceCode: req.ServiceCode,
			ShipFrom:    toAddressBody(req.ShipFrom),
			ShipTo:      toAddressBody(req.ShipTo),
			Packages:    packages,
		},
		LabelFormat:       "pdf",
		LabelLayout:       "4x6",
		LabelDownloadType: "url",
	}
}

func toAddressBody(a model.Address) addressBody {
	country := a.Country
	if country == "" {
		country = "US"
	}
	return addressBody{
		Name:                        a.Name,
		CompanyName:                 a.Company,
		Phone:                       a.Phone,
		AddressLine1:                a.Line1,
		AddressLine2:                a.Line2,
		CityLocality:                a.City,
		StateProvince:               a.State,
		PostalCode:                  a.PostalCode,
		CountryCode:                 country,
		AddressResidentialIndicator: "unknown",
	}
}
