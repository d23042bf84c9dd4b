package carrier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/metrics"
)

// Coordinator chooses between one multi-package label and per-package labels.
type Coordinator struct {
	client         Client
	maxConcurrency int
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewCoordinator constructs Coordinator. maxConcurrency bounds per-package fan-out.
func NewCoordinator(client Client, maxConcurrency int, m *metrics.Metrics, logger *slog.Logger) *Coordinator {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Coordinator{client: client, maxConcurrency: maxConcurrency, metrics: m, logger: logger}
}

// Validate checks the carrier/service combination without calling the carrier.
func (c *Coordinator) Validate(carrierCode, serviceCode string) error {
	return ValidateService(carrierCode, serviceCode)
}

// Purchase buys labels for every package in req.
// Per-package carriers with more than one parcel fan out and tolerate partial failure.
func (c *Coordinator) Purchase(ctx context.Context, req model.LabelRequest) (*model.LabelSet, error) {
	if err := ValidateService(req.CarrierCode, req.ServiceCode); err != nil {
		return nil, err
	}
	if len(req.Packages) == 0 {
		return nil, domainErrors.Invalid("packages", "at least one package is required")
	}
	if RequiresPerPackageLabels(req.CarrierCode) && len(req.Packages) > 1 {
		return c.purchasePerPackage(ctx, req)
	}
	return c.purchaseSingle(ctx, req)
}

func (c *Coordinator) purchaseSingle(ctx context.Context, req model.LabelRequest) (*model.LabelSet, error) {
	label, err := c.client.CreateLabel(ctx, req)
	if err == nil && len(label.Packages) != len(req.Packages) {
		// Each label entry maps onto one requested parcel and its item manifest.
		err = &domainErrors.CarrierError{
			Carrier:    req.CarrierCode,
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("carrier returned %d package labels for %d packages", len(label.Packages), len(req.Packages)),
		}
		c.logger.Error("carrier label package count mismatch",
			slog.String("carrier", req.CarrierCode),
			slog.Int("requested", len(req.Packages)),
			slog.Int("returned", len(label.Packages)),
			slog.String("tracking", label.TrackingNumber),
		)
	}
	c.observe(req.CarrierCode, err)
	if err != nil {
		return nil, err
	}

	set := &model.LabelSet{
		CarrierCode: req.CarrierCode,
		ServiceCode: req.ServiceCode,
		TotalCost:   label.Cost,
		Currency:    label.Currency,
	}
	for i, pkg := range label.Packages {
		set.Packages = append(set.Packages, model.LabelPackage{
			Index:          i,
			TrackingNumber: pkg.TrackingNumber,
			LabelURL:       pkg.LabelURL,
			TrackingURL:    pkg.TrackingURL,
		})
	}
	return set, nil
}

func (c *Coordinator) purchasePerPackage(ctx context.Context, req model.LabelRequest) (*model.LabelSet, error) {
	total := len(req.Packages)
	labels := make([]*Label, total)
	errs := make([]error, total)

	var g errgroup.Group
	g.SetLimit(c.maxConcurrency)
	for i := range req.Packages {
		g.Go(func() error {
			single := req
			single.Packages = []model.PackageSpec{req.Packages[i]}
			single.Reference = strings.TrimSpace(fmt.Sprintf("%s %d/%d", req.Reference, i+1, total))
			labels[i], errs[i] = c.client.CreateLabel(ctx, single)
			c.observe(req.CarrierCode, errs[i])
			return nil
		})
	}
	_ = g.Wait()

	set := &model.LabelSet{
		CarrierCode: req.CarrierCode,
		ServiceCode: req.ServiceCode,
		PerPackage:  true,
		TotalCost:   decimal.Zero,
	}
	for i := range req.Packages {
		if errs[i] != nil {
			c.logger.Warn("per-package label failed",
				slog.String("carrier", req.CarrierCode),
				slog.Int("package", i+1),
				slog.String("error", errs[i].Error()),
			)
			set.Failures = append(set.Failures, model.LabelFailure{Index: i, Err: errs[i]})
			continue
		}
		label := labels[i]
		if label == nil || len(label.Packages) == 0 {
			continue
		}
		pkg := label.Packages[0]
		set.Packages = append(set.Packages, model.LabelPackage{
			Index:          i,
			TrackingNumber: pkg.TrackingNumber,
			LabelURL:       pkg.LabelURL,
			TrackingURL:    pkg.TrackingURL,
			Cost:           label.Cost,
		})
		set.TotalCost = set.TotalCost.Add(label.Cost)
		if set.Currency == "" {
			set.Currency = label.Currency
		}
	}

	if len(set.Packages) == 0 {
		return nil, fmt.Errorf("%w: %d per-package label requests failed: %w", domainErrors.ErrNoLabels, total, errors.Join(errs...))
	}
	return set, nil
}

func (c *Coordinator) observe(carrierCode string, err error) {
	if c.metrics == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	c.metrics.LabelRequests.WithLabelValues(normalizeCode(carrierCode), outcome).Inc()
}
