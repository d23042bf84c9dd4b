package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
)

// shipmentTx implements repository.ShipmentTx on a single pgx transaction.
type shipmentTx struct {
	tx pgx.Tx
}

// WithinShipment runs fn in a read committed transaction. Row locks taken by
// the ShipmentTx reads are held until commit or rollback.
func (s *Storage) WithinShipment(ctx context.Context, fn func(repository.ShipmentTx) error) error {
	return s.withinTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&shipmentTx{tx: tx})
	})
}

func (t *shipmentTx) LockOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1 FOR UPDATE`
	order, err := scanOrder(t.tx.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, err
	}
	if order.Items, err = loadOrderItems(ctx, t.tx, orderID); err != nil {
		return nil, err
	}
	return order, nil
}

func (t *shipmentTx) ActiveReservations(ctx context.Context, orderID, productVariantID int64) ([]model.InventoryReservation, error) {
	const query = `SELECT id, order_id, product_variant_id, location_id, quantity, status, created_at
                   FROM inventory_reservations
                   WHERE order_id=$1 AND product_variant_id=$2 AND status='ACTIVE'
                   ORDER BY created_at DESC, id DESC
                   FOR UPDATE`
	rows, err := t.tx.Query(ctx, query, orderID, productVariantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.InventoryReservation
	for rows.Next() {
		var r model.InventoryReservation
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ProductVariantID, &r.LocationID, &r.Quantity, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *shipmentTx) ReleaseReservation(ctx context.Context, release model.ReservationRelease) error {
	res := release.Reservation
	if release.Quantity <= 0 || release.Quantity > res.Quantity {
		return fmt.Errorf("release %d of reservation %d holding %d", release.Quantity, res.ID, res.Quantity)
	}

	const updateInventory = `UPDATE inventory
                             SET quantity_on_hand = quantity_on_hand - $1,
                                 quantity_reserved = quantity_reserved - $1,
                                 updated_at = NOW()
                             WHERE product_variant_id=$2 AND location_id=$3`
	tag, err := t.tx.Exec(ctx, updateInventory, release.Quantity, res.ProductVariantID, res.LocationID)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no inventory row for variant %d at location %d", res.ProductVariantID, res.LocationID)
	}

	const insertTransaction = `INSERT INTO inventory_transactions
                               (product_variant_id, location_id, transaction_type, quantity_change, reference_id, reference_type, user_id, notes)
                               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := t.tx.Exec(ctx, insertTransaction, res.ProductVariantID, res.LocationID, model.TransactionTypeSale,
		-release.Quantity, res.OrderID, model.ReferenceTypeShipment, release.UserID, release.Notes); err != nil {
		return fmt.Errorf("insert inventory transaction: %w", err)
	}

	if release.Full {
		const fulfill = `UPDATE inventory_reservations SET status='FULFILLED', updated_at=NOW() WHERE id=$1`
		if _, err := t.tx.Exec(ctx, fulfill, res.ID); err != nil {
			return fmt.Errorf("fulfill reservation: %w", err)
		}
		return nil
	}

	const decrement = `UPDATE inventory_reservations SET quantity = quantity - $1, updated_at=NOW() WHERE id=$2`
	if _, err := t.tx.Exec(ctx, decrement, release.Quantity, res.ID); err != nil {
		return fmt.Errorf("decrement reservation: %w", err)
	}
	return nil
}

func (t *shipmentTx) CreatePackage(ctx context.Context, pkg *model.ShippingPackage) error {
	var dimensions []byte
	if pkg.Dimensions != nil {
		var err error
		if dimensions, err = json.Marshal(pkg.Dimensions); err != nil {
			return fmt.Errorf("encode dimensions: %w", err)
		}
	}

	const insertPackage = `INSERT INTO shipping_packages
                           (order_id, carrier_code, service_code, package_code, tracking_number, label_url, cost, currency, weight, dimensions)
                           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                           RETURNING id, created_at`
	if err := t.tx.QueryRow(ctx, insertPackage, pkg.OrderID, pkg.CarrierCode, pkg.ServiceCode, pkg.PackageCode,
		pkg.TrackingNumber, pkg.LabelURL, pkg.Cost, pkg.Currency, pkg.Weight, dimensions,
	).Scan(&pkg.ID, &pkg.CreatedAt); err != nil {
		return fmt.Errorf("insert shipping package: %w", err)
	}

	const insertItem = `INSERT INTO shipping_package_items (package_id, product_name, sku, quantity, unit_price)
                        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range pkg.Items {
		item := &pkg.Items[i]
		item.PackageID = pkg.ID
		if err := t.tx.QueryRow(ctx, insertItem, pkg.ID, item.ProductName, item.SKU, item.Quantity, item.UnitPrice).Scan(&item.ID); err != nil {
			return fmt.Errorf("insert shipping package item: %w", err)
		}
	}
	return nil
}

func (t *shipmentTx) ActiveBackOrders(ctx context.Context, orderID int64) ([]model.BackOrder, error) {
	const query = `SELECT id, order_id, product_variant_id, status, quantity_backordered, quantity_fulfilled, fulfilled_at
                   FROM back_orders
                   WHERE order_id=$1 AND status = ANY($2)
                   ORDER BY product_variant_id, id
                   FOR UPDATE`
	rows, err := t.tx.Query(ctx, query, orderID, statusNames(model.ActiveBackOrderStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.BackOrder
	for rows.Next() {
		var b model.BackOrder
		if err := rows.Scan(&b.ID, &b.OrderID, &b.ProductVariantID, &b.Status, &b.QuantityBackOrdered, &b.QuantityFulfilled, &b.FulfilledAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *shipmentTx) FulfillBackOrder(ctx context.Context, backOrderID int64, quantity int, at time.Time) error {
	const query = `UPDATE back_orders
                   SET status='FULFILLED', quantity_fulfilled=$1, fulfilled_at=$2, updated_at=NOW()
                   WHERE id=$3`
	if _, err := t.tx.Exec(ctx, query, quantity, at, backOrderID); err != nil {
		return fmt.Errorf("fulfill back order: %w", err)
	}
	return nil
}

func (t *shipmentTx) HasOutstandingBackOrders(ctx context.Context, orderID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM back_orders WHERE order_id=$1 AND status = ANY($2))`
	var exists bool
	if err := t.tx.QueryRow(ctx, query, orderID, statusNames(model.OutstandingBackOrderStatuses)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (t *shipmentTx) UpdateOrderShipment(ctx context.Context, order *model.Order) error {
	const query = `UPDATE orders
                   SET status=$1, shipping_status=$2, tracking_number=$3, tracking_url=$4, shipping_cost=$5,
                       shipping_carrier=$6, shipping_service=$7, label_url=$8, notes=$9, shipped_at=$10, updated_at=NOW()
                   WHERE id=$11
                   RETURNING updated_at`
	if err := t.tx.QueryRow(ctx, query, order.Status, order.ShippingStatus, order.TrackingNumber, order.TrackingURL,
		order.ShippingCost, order.ShippingCarrier, order.ShippingService, order.LabelURL, order.Notes, order.ShippedAt, order.ID,
	).Scan(&order.UpdatedAt); err != nil {
		return fmt.Errorf("update order shipment: %w", err)
	}
	return nil
}

func (t *shipmentTx) AppendStatusHistory(ctx context.Context, change model.OrderStatusChange) error {
	const query = `INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, notes)
                   VALUES ($1, $2, $3, $4, $5)`
	if _, err := t.tx.Exec(ctx, query, change.OrderID, change.FromStatus, change.ToStatus, change.ChangedBy, change.Notes); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func statusNames(statuses []model.BackOrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
