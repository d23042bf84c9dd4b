package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
)

const orderColumns = `id, order_number, status, shipping_status, tracking_number, tracking_url, shipping_cost,
       shipping_carrier, shipping_service, label_url, notes, shopify_order_id, customer_name, customer_email,
       shipping_address, shipped_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o              model.Order
		shippingStatus pgtype.Text
		shopifyOrderID pgtype.Text
		address        []byte
		shippedAt      pgtype.Timestamptz
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Status, &shippingStatus, &o.TrackingNumber, &o.TrackingURL,
		&o.ShippingCost, &o.ShippingCarrier, &o.ShippingService, &o.LabelURL, &o.Notes, &shopifyOrderID,
		&o.CustomerName, &o.CustomerEmail, &address, &shippedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	if shippingStatus.Valid {
		o.ShippingStatus = model.ShippingStatus(shippingStatus.String)
	}
	if shopifyOrderID.Valid && shopifyOrderID.String != "" {
		id := shopifyOrderID.String
		o.ShopifyOrderID = &id
	}
	if shippedAt.Valid {
		t := shippedAt.Time
		o.ShippedAt = &t
	}
	if len(address) > 0 {
		var a model.Address
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, fmt.Errorf("decode shipping address of order %d: %w", o.ID, err)
		}
		o.ShippingAddress = &a
	}
	return &o, nil
}

func loadOrderItems(ctx context.Context, q querier, orderID int64) ([]model.OrderItem, error) {
	const query = `SELECT oi.id, oi.order_id, oi.product_variant_id, pv.sku, pv.name, oi.quantity, oi.unit_price, pv.external_variant_id
                   FROM order_items oi
                   JOIN product_variants pv ON pv.id = oi.product_variant_id
                   WHERE oi.order_id=$1 ORDER BY oi.id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var (
			item     model.OrderItem
			external pgtype.Text
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductVariantID, &item.SKU, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &external); err != nil {
			return nil, err
		}
		if external.Valid && external.String != "" {
			v := external.String
			item.ExternalVariantID = &v
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) GetForShipment(ctx context.Context, orderID int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}
	if order.Items, err = loadOrderItems(ctx, r.storage.pool, orderID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListPackages(ctx context.Context, orderID int64) ([]model.ShippingPackage, error) {
	var exists bool
	if err := r.storage.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domainErrors.ErrNotFound
	}

	const packagesQuery = `SELECT id, order_id, carrier_code, service_code, package_code, tracking_number, label_url,
                                  cost, currency, weight, dimensions, created_at
                           FROM shipping_packages WHERE order_id=$1 ORDER BY created_at, id`
	rows, err := r.storage.pool.Query(ctx, packagesQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		packages []model.ShippingPackage
		ids      []int64
	)
	for rows.Next() {
		var (
			p          model.ShippingPackage
			dimensions []byte
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.CarrierCode, &p.ServiceCode, &p.PackageCode, &p.TrackingNumber,
			&p.LabelURL, &p.Cost, &p.Currency, &p.Weight, &dimensions, &p.CreatedAt); err != nil {
			return nil, err
		}
		if len(dimensions) > 0 {
			var d model.Dimensions
			if err := json.Unmarshal(dimensions, &d); err != nil {
				return nil, fmt.Errorf("decode dimensions of package %d: %w", p.ID, err)
			}
			p.Dimensions = &d
		}
		packages = append(packages, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		return packages, nil
	}

	items, err := r.packageItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range packages {
		packages[i].Items = items[packages[i].ID]
	}
	return packages, nil
}

func (r *orderRepository) packageItems(ctx context.Context, packageIDs []int64) (map[int64][]model.ShippingPackageItem, error) {
	const query = `SELECT id, package_id, product_name, sku, quantity, unit_price
                   FROM shipping_package_items WHERE package_id = ANY($1) ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, packageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]model.ShippingPackageItem, len(packageIDs))
	for rows.Next() {
		var item model.ShippingPackageItem
		if err := rows.Scan(&item.ID, &item.PackageID, &item.ProductName, &item.SKU, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		result[item.PackageID] = append(result[item.PackageID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
