package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
)

var readCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

var reservationColumns = []string{"id", "order_id", "product_variant_id", "location_id", "quantity", "status", "created_at"}

func TestWithinShipmentCommitsAndRollsBack(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectCommit()
	var seen repository.ShipmentTx
	if err := storage.WithinShipment(context.Background(), func(tx repository.ShipmentTx) error {
		seen = tx
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := seen.(*shipmentTx); !ok {
		t.Fatalf("unexpected tx type %T", seen)
	}

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectRollback()
	failure := errors.New("shortfall")
	if err := storage.WithinShipment(context.Background(), func(repository.ShipmentTx) error { return failure }); !errors.Is(err, failure) {
		t.Fatalf("expected callback error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestShipmentTxLockOrderAndReservations(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	now := time.Now()
	older := now.Add(-time.Hour)

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectQuery("FROM orders WHERE id=.+ FOR UPDATE").WithArgs(int64(1)).WillReturnRows(packedOrderRows(now))
	mock.ExpectQuery("SELECT oi.id, oi.order_id").WithArgs(int64(1)).WillReturnRows(orderItemRows())
	mock.ExpectQuery("FROM inventory_reservations WHERE order_id=.+ ORDER BY created_at DESC, id DESC FOR UPDATE").
		WithArgs(int64(1), int64(100)).
		WillReturnRows(pgxmockv3.NewRows(reservationColumns).
			AddRow(int64(31), int64(1), int64(100), int64(7), 3, model.ReservationStatusActive, now).
			AddRow(int64(30), int64(1), int64(100), int64(7), 5, model.ReservationStatusActive, older))
	mock.ExpectCommit()

	err := storage.WithinShipment(context.Background(), func(tx repository.ShipmentTx) error {
		order, err := tx.LockOrder(context.Background(), 1)
		if err != nil {
			return err
		}
		if len(order.Items) != 2 {
			t.Errorf("expected items to be loaded, got %d", len(order.Items))
		}
		reservations, err := tx.ActiveReservations(context.Background(), 1, 100)
		if err != nil {
			return err
		}
		if len(reservations) != 2 || reservations[0].ID != 31 || reservations[1].Quantity != 5 {
			t.Errorf("unexpected reservations %+v", reservations)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestShipmentTxActiveReservationsErrors(t *testing.T) {
	_, mock := newMockStorage(t)
	defer mock.Close()
	tx := &shipmentTx{tx: mock}

	mock.ExpectQuery("FROM inventory_reservations").WithArgs(int64(1), int64(100)).WillReturnError(errors.New("query"))
	if _, err := tx.ActiveReservations(context.Background(), 1, 100); err == nil {
		t.Fatal("expected query error")
	}

	mock.ExpectQuery("FROM inventory_reservations").WithArgs(int64(1), int64(100)).WillReturnRows(
		pgxmockv3.NewRows(reservationColumns).AddRow("bad", int64(1), int64(100), int64(7), 3, model.ReservationStatusActive, time.Now()))
	if _, err := tx.ActiveReservations(context.Background(), 1, 100); err == nil {
		t.Fatal("expected scan error")
	}

	rowsTx := &shipmentTx{tx: &rowsErrorTx{rows: &errorRows{err: errors.New("rows err")}}}
	if _, err := rowsTx.ActiveReservations(context.Background(), 1, 100); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestShipmentTxReleaseReservation(t *testing.T) {
	_, mock := newMockStorage(t)
	defer mock.Close()
	tx := &shipmentTx{tx: mock}
	reservation := model.InventoryReservation{ID: 31, OrderID: 1, ProductVariantID: 100, LocationID: 7, Quantity: 3}

	t.Run("partial release decrements reservation", func(t *testing.T) {
		mock.ExpectExec("UPDATE inventory SET quantity_on_hand").WithArgs(2, int64(100), int64(7)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectExec("INSERT INTO inventory_transactions").
			WithArgs(int64(100), int64(7), model.TransactionTypeSale, -2, int64(1), model.ReferenceTypeShipment, int64(9), "Shipped 1ZA").
			WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
		mock.ExpectExec("UPDATE inventory_reservations SET quantity = quantity - ").WithArgs(2, int64(31)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))

		err := tx.ReleaseReservation(context.Background(), model.ReservationRelease{Reservation: reservation, Quantity: 2, UserID: 9, Notes: "Shipped 1ZA"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("full release fulfills reservation", func(t *testing.T) {
		mock.ExpectExec("UPDATE inventory SET quantity_on_hand").WithArgs(3, int64(100), int64(7)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectExec("INSERT INTO inventory_transactions").
			WithArgs(int64(100), int64(7), model.TransactionTypeSale, -3, int64(1), model.ReferenceTypeShipment, int64(9), "").
			WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
		mock.ExpectExec("UPDATE inventory_reservations SET status='FULFILLED'").WithArgs(int64(31)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))

		err := tx.ReleaseReservation(context.Background(), model.ReservationRelease{Reservation: reservation, Quantity: 3, Full: true, UserID: 9})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("over release rejected", func(t *testing.T) {
		for _, qty := range []int{0, 4} {
			if err := tx.ReleaseReservation(context.Background(), model.ReservationRelease{Reservation: reservation, Quantity: qty}); err == nil {
				t.Fatalf("expected error for quantity %d", qty)
			}
		}
	})

	t.Run("missing inventory row", func(t *testing.T) {
		mock.ExpectExec("UPDATE inventory SET quantity_on_hand").WithArgs(1, int64(100), int64(7)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
		err := tx.ReleaseReservation(context.Background(), model.ReservationRelease{Reservation: reservation, Quantity: 1})
		if err == nil || !strings.Contains(err.Error(), "no inventory row") {
			t.Fatalf("expected missing inventory error, got %v", err)
		}
	})

	t.Run("ledger insert failure", func(t *testing.T) {
		mock.ExpectExec("UPDATE inventory SET quantity_on_hand").WithArgs(1, int64(100), int64(7)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectExec("INSERT INTO inventory_transactions").WithArgs(anyArgs(8)...).WillReturnError(errors.New("insert"))
		if err := tx.ReleaseReservation(context.Background(), model.ReservationRelease{Reservation: reservation, Quantity: 1}); err == nil {
			t.Fatal("expected insert error")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestShipmentTxCreatePackage(t *testing.T) {
	_, mock := newMockStorage(t)
	defer mock.Close()
	tx := &shipmentTx{tx: mock}
	now := time.Now()

	pkg := &model.ShippingPackage{
		OrderID:        1,
		CarrierCode:    "ups",
		ServiceCode:    "ups_ground",
		TrackingNumber: "1ZA",
		Cost:           decimal.RequireFromString("7.50"),
		Currency:       "usd",
		Weight:         decimal.NewFromInt(2),
		Dimensions:     &model.Dimensions{Length: decimal.NewFromInt(10), Width: decimal.NewFromInt(8), Height: decimal.NewFromInt(4), Unit: "inch"},
		Items: []model.ShippingPackageItem{
			{ProductName: "Widget", SKU: "SKU-A", Quantity: 2, UnitPrice: decimal.RequireFromString("9.99")},
		},
	}

	mock.ExpectQuery("INSERT INTO shipping_packages").
		WithArgs(int64(1), "ups", "ups_ground", "", "1ZA", "", pgxmockv3.AnyArg(), "usd", pgxmockv3.AnyArg(), pgxmockv3.AnyArg()).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(55), now))
	mock.ExpectQuery("INSERT INTO shipping_package_items").
		WithArgs(int64(55), "Widget", "SKU-A", 2, pgxmockv3.AnyArg()).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(77)))

	if err := tx.CreatePackage(context.Background(), pkg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.ID != 55 || pkg.Items[0].ID != 77 || pkg.Items[0].PackageID != 55 {
		t.Fatalf("expected ids to be assigned, got %+v", pkg)
	}

	mock.ExpectQuery("INSERT INTO shipping_packages").WithArgs(anyArgs(10)...).WillReturnError(errors.New("insert"))
	if err := tx.CreatePackage(context.Background(), &model.ShippingPackage{OrderID: 1}); err == nil {
		t.Fatal("expected insert error")
	}

	mock.ExpectQuery("INSERT INTO shipping_packages").WithArgs(anyArgs(10)...).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(56), now))
	mock.ExpectQuery("INSERT INTO shipping_package_items").WithArgs(anyArgs(5)...).WillReturnError(errors.New("item"))
	if err := tx.CreatePackage(context.Background(), &model.ShippingPackage{OrderID: 1, Items: []model.ShippingPackageItem{{SKU: "X", Quantity: 1}}}); err == nil {
		t.Fatal("expected item insert error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestShipmentTxBackOrders(t *testing.T) {
	_, mock := newMockStorage(t)
	defer mock.Close()
	tx := &shipmentTx{tx: mock}
	now := time.Now()

	backOrderColumns := []string{"id", "order_id", "product_variant_id", "status", "quantity_backordered", "quantity_fulfilled", "fulfilled_at"}
	mock.ExpectQuery("FROM back_orders WHERE order_id=.+ FOR UPDATE").
		WithArgs(int64(1), []string{"ALLOCATED", "PICKING", "PICKED", "PACKED"}).
		WillReturnRows(pgxmockv3.NewRows(backOrderColumns).
			AddRow(int64(4), int64(1), int64(100), model.BackOrderStatusPacked, 5, 0, nil))

	backOrders, err := tx.ActiveBackOrders(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backOrders) != 1 || backOrders[0].QuantityBackOrdered != 5 || backOrders[0].FulfilledAt != nil {
		t.Fatalf("unexpected back orders %+v", backOrders)
	}

	mock.ExpectExec("UPDATE back_orders SET status='FULFILLED'").WithArgs(5, now, int64(4)).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := tx.FulfillBackOrder(context.Background(), 4, 5, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectQuery("SELECT EXISTS.SELECT 1 FROM back_orders").
		WithArgs(int64(1), []string{"PENDING", "ALLOCATED", "PICKING", "PICKED"}).
		WillReturnRows(pgxmockv3.NewRows([]string{"exists"}).AddRow(true))
	outstanding, err := tx.HasOutstandingBackOrders(context.Background(), 1)
	if err != nil || !outstanding {
		t.Fatalf("expected outstanding back orders, got %v err=%v", outstanding, err)
	}

	mock.ExpectQuery("FROM back_orders WHERE order_id").WithArgs(anyArgs(2)...).WillReturnError(errors.New("query"))
	if _, err := tx.ActiveBackOrders(context.Background(), 1); err == nil {
		t.Fatal("expected query error")
	}

	mock.ExpectExec("UPDATE back_orders SET status='FULFILLED'").WithArgs(anyArgs(3)...).WillReturnError(errors.New("update"))
	if err := tx.FulfillBackOrder(context.Background(), 4, 5, now); err == nil {
		t.Fatal("expected update error")
	}

	mock.ExpectQuery("SELECT EXISTS.SELECT 1 FROM back_orders").WithArgs(anyArgs(2)...).WillReturnError(errors.New("exists"))
	if _, err := tx.HasOutstandingBackOrders(context.Background(), 1); err == nil {
		t.Fatal("expected exists error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestShipmentTxUpdateOrderAndHistory(t *testing.T) {
	_, mock := newMockStorage(t)
	defer mock.Close()
	tx := &shipmentTx{tx: mock}
	shippedAt := time.Now()
	updatedAt := shippedAt.Add(time.Second)

	order := &model.Order{
		ID:              1,
		Status:          model.OrderStatusShipped,
		ShippingStatus:  model.ShippingStatusShipped,
		TrackingNumber:  "1ZA,1ZB",
		TrackingURL:     "https://track/1ZA",
		ShippingCost:    decimal.RequireFromString("15.00"),
		ShippingCarrier: "ups",
		ShippingService: "ups_ground",
		LabelURL:        "https://labels/a,https://labels/b",
		Notes:           "Shipped 2 packages",
		ShippedAt:       &shippedAt,
	}

	mock.ExpectQuery("UPDATE orders SET status=").
		WithArgs(model.OrderStatusShipped, model.ShippingStatusShipped, "1ZA,1ZB", "https://track/1ZA", pgxmockv3.AnyArg(),
			"ups", "ups_ground", "https://labels/a,https://labels/b", "Shipped 2 packages", &shippedAt, int64(1)).
		WillReturnRows(pgxmockv3.NewRows([]string{"updated_at"}).AddRow(updatedAt))
	if err := tx.UpdateOrderShipment(context.Background(), order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("expected updated_at to be refreshed")
	}

	mock.ExpectExec("INSERT INTO order_status_history").
		WithArgs(int64(1), model.OrderStatusPacked, model.OrderStatusShipped, int64(9), "Shipped via ups").
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := tx.AppendStatusHistory(context.Background(), model.OrderStatusChange{
		OrderID: 1, FromStatus: model.OrderStatusPacked, ToStatus: model.OrderStatusShipped, ChangedBy: 9, Notes: "Shipped via ups",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectQuery("UPDATE orders SET status=").WithArgs(anyArgs(11)...).WillReturnError(errors.New("update"))
	if err := tx.UpdateOrderShipment(context.Background(), order); err == nil {
		t.Fatal("expected update error")
	}

	mock.ExpectExec("INSERT INTO order_status_history").WithArgs(anyArgs(5)...).WillReturnError(errors.New("insert"))
	if err := tx.AppendStatusHistory(context.Background(), model.OrderStatusChange{OrderID: 1}); err == nil {
		t.Fatal("expected insert error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestShipmentTxRowsErrorInsideTransaction(t *testing.T) {
	rows := &errorRows{err: errors.New("rows err")}
	storage := &Storage{pool: &rowsErrorTxPool{tx: &rowsErrorTx{rows: rows}}}

	err := storage.WithinShipment(context.Background(), func(tx repository.ShipmentTx) error {
		_, err := tx.ActiveBackOrders(context.Background(), 1)
		return err
	})
	if err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}
