package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
)

// ReleaseContext names how the quantity to release was derived.
type ReleaseContext string

const (
	ContextPerPackage ReleaseContext = "per_package"
	ContextBackOrder  ReleaseContext = "back_order"
	ContextOrdinary   ReleaseContext = "ordinary"
)

// ReleasePlan is the reservation release computed for one shipment.
type ReleasePlan struct {
	Context    ReleaseContext
	Mode       ReleaseMode
	Needed     map[int64]int
	SKUs       map[int64]string
	BackOrders []model.BackOrder
}

// BackOrderReconciler decides what a shipment releases and which back orders it closes.
type BackOrderReconciler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewBackOrderReconciler constructs BackOrderReconciler.
func NewBackOrderReconciler(logger *slog.Logger) *BackOrderReconciler {
	return &BackOrderReconciler{logger: logger, now: time.Now}
}

// Plan picks the release context. Per-package labels win over back orders, back orders over
// an ordinary shipment. shipped holds only the packages that received a label.
func (r *BackOrderReconciler) Plan(order *model.Order, perPackage bool, shipped []model.PackageSpec, requestItems []model.PackageItem, backOrders []model.BackOrder) ReleasePlan {
	plan := ReleasePlan{Needed: make(map[int64]int), SKUs: make(map[int64]string)}

	switch {
	case perPackage:
		plan.Context = ContextPerPackage
		plan.Mode = ReleaseStrict
		items := manifestItems(shipped)
		if len(items) == 0 {
			items = requestItems
		}
		r.addItems(&plan, order, items)
	case len(backOrders) > 0:
		plan.Context = ContextBackOrder
		plan.Mode = ReleaseStrict
		plan.BackOrders = backOrders
		for _, bo := range backOrders {
			plan.Needed[bo.ProductVariantID] += bo.QuantityBackOrdered
			if sku := skuForVariant(order, bo.ProductVariantID); sku != "" {
				plan.SKUs[bo.ProductVariantID] = sku
			}
		}
	default:
		plan.Context = ContextOrdinary
		plan.Mode = ReleaseTolerant
		items := manifestItems(shipped)
		if len(items) == 0 {
			items = requestItems
		}
		if len(items) == 0 {
			items = orderLineItems(order)
		}
		r.addItems(&plan, order, items)
	}
	return plan
}

func (r *BackOrderReconciler) addItems(plan *ReleasePlan, order *model.Order, items []model.PackageItem) {
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		orderItem, ok := order.ItemBySKU(item.SKU)
		if !ok {
			r.logger.Warn("shipped sku not on order",
				slog.Int64("order_id", order.ID),
				slog.String("sku", item.SKU),
			)
			continue
		}
		plan.Needed[orderItem.ProductVariantID] += item.Quantity
		plan.SKUs[orderItem.ProductVariantID] = orderItem.SKU
	}
}

// Fulfill closes every back order of a back-order plan in full.
func (r *BackOrderReconciler) Fulfill(ctx context.Context, tx repository.ShipmentTx, plan ReleasePlan) ([]model.BackOrderFulfillment, error) {
	if plan.Context != ContextBackOrder {
		return nil, nil
	}
	at := r.now()
	fulfilled := make([]model.BackOrderFulfillment, 0, len(plan.BackOrders))
	for _, bo := range plan.BackOrders {
		if err := tx.FulfillBackOrder(ctx, bo.ID, bo.QuantityBackOrdered, at); err != nil {
			return nil, fmt.Errorf("fulfill back order %d: %w", bo.ID, err)
		}
		fulfilled = append(fulfilled, model.BackOrderFulfillment{
			BackOrderID:      bo.ID,
			ProductVariantID: bo.ProductVariantID,
			Quantity:         bo.QuantityBackOrdered,
		})
	}
	return fulfilled, nil
}

// ShippingStatus is PARTIALLY_SHIPPED while any back order of the order is still outstanding.
func (r *BackOrderReconciler) ShippingStatus(ctx context.Context, tx repository.ShipmentTx, orderID int64) (model.ShippingStatus, bool, error) {
	pending, err := tx.HasOutstandingBackOrders(ctx, orderID)
	if err != nil {
		return "", false, fmt.Errorf("check outstanding back orders: %w", err)
	}
	if pending {
		return model.ShippingStatusPartiallyShipped, true, nil
	}
	return model.ShippingStatusShipped, false, nil
}

func manifestItems(packages []model.PackageSpec) []model.PackageItem {
	var items []model.PackageItem
	for _, pkg := range packages {
		items = append(items, pkg.Items...)
	}
	return items
}

func orderLineItems(order *model.Order) []model.PackageItem {
	items := make([]model.PackageItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, model.PackageItem{SKU: item.SKU, Quantity: item.Quantity})
	}
	return items
}

func skuForVariant(order *model.Order, variantID int64) string {
	for _, item := range order.Items {
		if item.ProductVariantID == variantID {
			return item.SKU
		}
	}
	return ""
}
