package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/warehouse/internal/config"
	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
	"github.com/polkiloo/warehouse/internal/metrics"
)

const defaultCurrency = "usd"

// LabelPurchaser buys carrier labels outside of any database transaction.
type LabelPurchaser interface {
	Validate(carrierCode, serviceCode string) error
	Purchase(ctx context.Context, req model.LabelRequest) (*model.LabelSet, error)
}

// CreateShipmentInput is a validated-on-entry shipment request.
type CreateShipmentInput struct {
	OrderID         int64
	UserID          int64
	CarrierCode     string
	ServiceCode     string
	Packages        []model.PackageSpec
	ShippingAddress *model.Address
	Notes           string
	Items           []model.PackageItem
}

// ShipmentResult is everything a committed shipment produced.
type ShipmentResult struct {
	Order                *model.Order
	Labels               *model.LabelSet
	Packages             []model.ShippingPackage
	Releases             []model.ReleaseSummary
	BackOrders           []model.BackOrderFulfillment
	Context              ReleaseContext
	HasPendingBackOrders bool
	Task                 *model.ShippingTask
	PendingSync          *model.PendingFulfillmentSync
}

// ShipmentParams are the collaborators of ShipmentUseCase.
type ShipmentParams struct {
	fx.In

	Orders     repository.OrderRepository
	Shipments  repository.ShipmentUnitOfWork
	Labels     LabelPurchaser
	Ledger     *ReservationLedger
	BackOrders *BackOrderReconciler
	Dispatcher *Dispatcher
	Config     *config.Config
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// ShipmentUseCase completes shipments: labels first, then one transaction, then side effects.
type ShipmentUseCase struct {
	orders     repository.OrderRepository
	shipments  repository.ShipmentUnitOfWork
	labels     LabelPurchaser
	ledger     *ReservationLedger
	backOrders *BackOrderReconciler
	dispatcher *Dispatcher
	shipFrom   model.Address
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewShipmentUseCase constructs ShipmentUseCase.
func NewShipmentUseCase(p ShipmentParams) *ShipmentUseCase {
	var shipFrom model.Address
	if p.Config != nil {
		shipFrom = warehouseAddress(p.Config.Warehouse)
	}
	return &ShipmentUseCase{
		orders:     p.Orders,
		shipments:  p.Shipments,
		labels:     p.Labels,
		ledger:     p.Ledger,
		backOrders: p.BackOrders,
		dispatcher: p.Dispatcher,
		shipFrom:   shipFrom,
		metrics:    p.Metrics,
		logger:     p.Logger,
		now:        time.Now,
	}
}

func warehouseAddress(w config.Warehouse) model.Address {
	return model.Address{
		Name:       w.Name,
		Company:    w.Company,
		Line1:      w.Address1,
		City:       w.City,
		State:      w.State,
		PostalCode: w.PostalCode,
		Country:    w.Country,
		Phone:      w.Phone,
	}
}

// CreateShipment buys labels for the packages and records the shipment atomically.
func (u *ShipmentUseCase) CreateShipment(ctx context.Context, in CreateShipmentInput) (*ShipmentResult, error) {
	if err := u.validate(in); err != nil {
		return nil, err
	}

	order, err := u.orders.GetForShipment(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Shippable() {
		return nil, domainErrors.Invalid("orderId", "order %s is %s and cannot be shipped", order.OrderNumber, order.Status)
	}
	shipTo, err := resolveShipTo(in.ShippingAddress, order)
	if err != nil {
		return nil, err
	}

	labels, err := u.labels.Purchase(ctx, model.LabelRequest{
		CarrierCode: in.CarrierCode,
		ServiceCode: in.ServiceCode,
		ShipFrom:    u.shipFrom,
		ShipTo:      shipTo,
		Packages:    in.Packages,
		Reference:   order.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	var (
		result *ShipmentResult
		events []Event
	)
	err = u.shipments.WithinShipment(ctx, func(tx repository.ShipmentTx) error {
		var err error
		result, events, err = u.complete(ctx, tx, in, labels)
		return err
	})
	if err != nil {
		u.logger.Error("labels purchased but shipment not recorded",
			slog.Int64("order_id", in.OrderID),
			slog.String("carrier", labels.CarrierCode),
			slog.String("tracking", strings.Join(labels.TrackingNumbers(), ",")),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if u.metrics != nil {
		u.metrics.ShipmentsCompleted.WithLabelValues(string(result.Order.ShippingStatus)).Inc()
	}

	report := u.dispatcher.Dispatch(ctx, events)
	result.Task = report.Task
	result.PendingSync = report.PendingSync
	return result, nil
}

// OrderPackages lists the labeled packages of an order.
func (u *ShipmentUseCase) OrderPackages(ctx context.Context, orderID int64) ([]model.ShippingPackage, error) {
	if orderID <= 0 {
		return nil, domainErrors.Invalid("orderId", "is required")
	}
	return u.orders.ListPackages(ctx, orderID)
}

func (u *ShipmentUseCase) validate(in CreateShipmentInput) error {
	if in.OrderID <= 0 {
		return domainErrors.Invalid("orderId", "is required")
	}
	if len(in.Packages) == 0 {
		return domainErrors.Invalid("packages", "at least one package is required")
	}
	for i, pkg := range in.Packages {
		if !pkg.Weight.IsPositive() {
			return domainErrors.Invalid(fmt.Sprintf("packages[%d].weight", i), "must be greater than zero")
		}
		for j, item := range pkg.Items {
			if strings.TrimSpace(item.SKU) == "" {
				return domainErrors.Invalid(fmt.Sprintf("packages[%d].items[%d].sku", i, j), "is required")
			}
			if item.Quantity <= 0 {
				return domainErrors.Invalid(fmt.Sprintf("packages[%d].items[%d].quantity", i, j), "must be greater than zero")
			}
		}
	}
	if strings.TrimSpace(in.CarrierCode) == "" {
		return domainErrors.Invalid("carrierCode", "is required")
	}
	if strings.TrimSpace(in.ServiceCode) == "" {
		return domainErrors.Invalid("serviceCode", "is required")
	}
	return u.labels.Validate(in.CarrierCode, in.ServiceCode)
}

func resolveShipTo(requested *model.Address, order *model.Order) (model.Address, error) {
	addr := requested
	if addr == nil {
		addr = order.ShippingAddress
	}
	if addr == nil {
		return model.Address{}, domainErrors.Invalid("shippingAddress", "order has no shipping address")
	}
	if missing := addr.MissingFields(); len(missing) > 0 {
		return model.Address{}, domainErrors.Invalid("shippingAddress", "missing %s", strings.Join(missing, ", "))
	}
	shipTo := *addr
	if shipTo.Name == "" {
		shipTo.Name = order.CustomerName
	}
	return shipTo, nil
}

// complete runs inside the shipment transaction. It performs no network I/O; side effects
// are returned as events for the dispatcher.
func (u *ShipmentUseCase) complete(ctx context.Context, tx repository.ShipmentTx, in CreateShipmentInput, labels *model.LabelSet) (*ShipmentResult, []Event, error) {
	order, err := tx.LockOrder(ctx, in.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if !order.Status.Shippable() {
		return nil, nil, domainErrors.Invalid("orderId", "order %s is %s and cannot be shipped", order.OrderNumber, order.Status)
	}

	shipped := make([]model.PackageSpec, 0, len(labels.Packages))
	for _, lp := range labels.Packages {
		shipped = append(shipped, in.Packages[lp.Index])
	}

	packages, err := u.createPackages(ctx, tx, order.ID, labels, shipped)
	if err != nil {
		return nil, nil, err
	}

	var active []model.BackOrder
	if !labels.PerPackage {
		if active, err = tx.ActiveBackOrders(ctx, order.ID); err != nil {
			return nil, nil, fmt.Errorf("load back orders: %w", err)
		}
	}
	plan := u.backOrders.Plan(order, labels.PerPackage, shipped, in.Items, active)

	tracking := labels.TrackingNumbers()
	releases, err := u.ledger.Release(ctx, tx, ReleaseRequest{
		OrderID: order.ID,
		UserID:  in.UserID,
		Needed:  plan.Needed,
		SKUs:    plan.SKUs,
		Mode:    plan.Mode,
		Notes:   fmt.Sprintf("Order %s shipped, tracking %s", order.OrderNumber, strings.Join(tracking, ", ")),
	})
	if err != nil {
		return nil, nil, err
	}

	fulfilled, err := u.backOrders.Fulfill(ctx, tx, plan)
	if err != nil {
		return nil, nil, err
	}
	status, pending, err := u.backOrders.ShippingStatus(ctx, tx, order.ID)
	if err != nil {
		return nil, nil, err
	}

	note := shipmentNote(labels, in.Notes)
	previous := applyShipment(order, shipmentUpdate{labels: labels, status: status, note: note, at: u.now()})
	if err := tx.UpdateOrderShipment(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("update order: %w", err)
	}
	if err := tx.AppendStatusHistory(ctx, model.OrderStatusChange{
		OrderID:    order.ID,
		FromStatus: previous,
		ToStatus:   order.Status,
		ChangedBy:  in.UserID,
		Notes:      note,
	}); err != nil {
		return nil, nil, fmt.Errorf("append status history: %w", err)
	}

	result := &ShipmentResult{
		Order:                order,
		Labels:               labels,
		Packages:             packages,
		Releases:             releases,
		BackOrders:           fulfilled,
		Context:              plan.Context,
		HasPendingBackOrders: pending,
	}
	return result, u.shipmentEvents(in, result, shipped), nil
}

func (u *ShipmentUseCase) createPackages(ctx context.Context, tx repository.ShipmentTx, orderID int64, labels *model.LabelSet, shipped []model.PackageSpec) ([]model.ShippingPackage, error) {
	currency := labels.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	costs := splitCost(labels.TotalCost, len(labels.Packages))
	packages := make([]model.ShippingPackage, 0, len(labels.Packages))
	for i, lp := range labels.Packages {
		spec := shipped[i]
		pkg := model.ShippingPackage{
			OrderID:        orderID,
			CarrierCode:    labels.CarrierCode,
			ServiceCode:    labels.ServiceCode,
			PackageCode:    spec.PackageCode,
			TrackingNumber: lp.TrackingNumber,
			LabelURL:       lp.LabelURL,
			Cost:           costs[i],
			Currency:       currency,
			Weight:         spec.Weight,
			Dimensions:     spec.Dimensions,
		}
		for _, item := range spec.Items {
			pkg.Items = append(pkg.Items, model.ShippingPackageItem{
				ProductName: item.ProductName,
				SKU:         item.SKU,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}
		if err := tx.CreatePackage(ctx, &pkg); err != nil {
			return nil, fmt.Errorf("create package %d: %w", i+1, err)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func shipmentNote(labels *model.LabelSet, notes string) string {
	note := fmt.Sprintf("Shipped %d package(s) via %s %s: %s",
		len(labels.Packages), labels.CarrierCode, labels.ServiceCode, strings.Join(labels.TrackingNumbers(), ", "))
	if notes = strings.TrimSpace(notes); notes != "" {
		note += ". " + notes
	}
	return note
}

// shipmentEvents lists post-commit side effects in the order they run.
func (u *ShipmentUseCase) shipmentEvents(in CreateShipmentInput, r *ShipmentResult, shipped []model.PackageSpec) []Event {
	order := r.Order
	events := []Event{
		PackTasksCompleted{OrderID: order.ID, UserID: in.UserID},
		CarrierSelected{OrderID: order.ID, UserID: in.UserID, CarrierCode: r.Labels.CarrierCode, ServiceCode: r.Labels.ServiceCode},
	}
	for i, spec := range shipped {
		events = append(events, PackageWeighed{OrderID: order.ID, UserID: in.UserID, PackageNumber: i + 1, Weight: spec.Weight})
		if spec.Dimensions != nil {
			events = append(events, PackageMeasured{OrderID: order.ID, UserID: in.UserID, PackageNumber: i + 1, Dimensions: *spec.Dimensions})
		}
	}
	if r.Labels.PerPackage {
		events = append(events, BatchLabelsGenerated{OrderID: order.ID, UserID: in.UserID, Packages: r.Packages, TotalCost: r.Labels.TotalCost})
	} else {
		for _, pkg := range r.Packages {
			events = append(events, LabelGenerated{OrderID: order.ID, UserID: in.UserID, Package: pkg})
		}
	}
	events = append(events, ShippingTaskCompleted{OrderID: order.ID, UserID: in.UserID, Notes: in.Notes})

	packageIDs := make([]int64, 0, len(r.Packages))
	for _, pkg := range r.Packages {
		packageIDs = append(packageIDs, pkg.ID)
	}
	events = append(events, PackingSlipRequested{Job: model.PackingSlipJob{
		OrderID:     order.ID,
		PackageIDs:  packageIDs,
		OrderNumber: order.OrderNumber,
	}})

	if order.ShopifyOrderID != nil && *order.ShopifyOrderID != "" {
		events = append(events, FulfillmentSyncRequested{Job: model.FulfillmentSyncJob{
			OrderID:         order.ID,
			ShopifyOrderID:  *order.ShopifyOrderID,
			TrackingNumbers: r.Labels.TrackingNumbers(),
			TrackingURLs:    r.Labels.TrackingURLs(),
			Carrier:         r.Labels.CarrierCode,
			LineItems:       fulfillmentLineItems(order, in.Items, shipped, r.Releases),
			IsBackOrder:     r.Context == ContextBackOrder,
		}})
	}

	if strings.TrimSpace(order.CustomerEmail) != "" {
		events = append(events, NotificationRequested{Job: model.ShipmentNotificationJob{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			UserID:          in.UserID,
			CustomerEmail:   order.CustomerEmail,
			Type:            model.NotificationTypeShipped,
			TrackingNumbers: r.Labels.TrackingNumbers(),
		}})
	}
	return events
}

// fulfillmentLineItems prefers quantities the packer supplied over computed releases,
// since a short pick may have released less than was reserved.
func fulfillmentLineItems(order *model.Order, requestItems []model.PackageItem, shipped []model.PackageSpec, releases []model.ReleaseSummary) []model.FulfillmentLineItem {
	items := requestItems
	if len(items) == 0 {
		items = manifestItems(shipped)
	}
	if len(items) == 0 {
		for _, rel := range releases {
			sku := rel.SKU
			if sku == "" {
				sku = skuForVariant(order, rel.ProductVariantID)
			}
			items = append(items, model.PackageItem{SKU: sku, Quantity: rel.Quantity})
		}
	}

	var (
		lines []model.FulfillmentLineItem
		index = make(map[string]int)
	)
	for _, item := range items {
		if item.Quantity <= 0 || item.SKU == "" {
			continue
		}
		if i, ok := index[item.SKU]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		line := model.FulfillmentLineItem{SKU: item.SKU, Quantity: item.Quantity}
		if orderItem, ok := order.ItemBySKU(item.SKU); ok {
			line.VariantID = orderItem.ExternalVariantID
		}
		index[item.SKU] = len(lines)
		lines = append(lines, line)
	}
	return lines
}
