package test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
)

// InventoryKey identifies a stock row.
type InventoryKey struct {
	VariantID  int64
	LocationID int64
}

// ShipmentStore is an in-memory shipment unit of work. A failed unit of work restores the
// snapshot taken when it began, the way a database rollback would.
type ShipmentStore struct {
	// ReleaseHook runs before every reservation release; an error aborts the unit of work.
	ReleaseHook func(model.ReservationRelease) error
	// UpdateOrderErr fails the order update step.
	UpdateOrderErr error

	mu           sync.Mutex
	Orders       map[int64]model.Order
	Reservations []model.InventoryReservation
	Inventory    map[InventoryKey]model.Inventory
	Transactions []model.InventoryTransaction
	BackOrders   []model.BackOrder
	Packages     []model.ShippingPackage
	History      []model.OrderStatusChange
	Commits      int
	Rollbacks    int
	nextID       int64
}

// NewShipmentStore constructs an empty store.
func NewShipmentStore() *ShipmentStore {
	return &ShipmentStore{
		Orders:    make(map[int64]model.Order),
		Inventory: make(map[InventoryKey]model.Inventory),
		nextID:    1000,
	}
}

type shipmentSnapshot struct {
	orders       map[int64]model.Order
	reservations []model.InventoryReservation
	inventory    map[InventoryKey]model.Inventory
	transactions []model.InventoryTransaction
	backOrders   []model.BackOrder
	packages     []model.ShippingPackage
	history      []model.OrderStatusChange
	nextID       int64
}

func (s *ShipmentStore) snapshot() shipmentSnapshot {
	orders := make(map[int64]model.Order, len(s.Orders))
	for k, v := range s.Orders {
		orders[k] = v
	}
	inventory := make(map[InventoryKey]model.Inventory, len(s.Inventory))
	for k, v := range s.Inventory {
		inventory[k] = v
	}
	return shipmentSnapshot{
		orders:       orders,
		reservations: slices.Clone(s.Reservations),
		inventory:    inventory,
		transactions: slices.Clone(s.Transactions),
		backOrders:   slices.Clone(s.BackOrders),
		packages:     slices.Clone(s.Packages),
		history:      slices.Clone(s.History),
		nextID:       s.nextID,
	}
}

func (s *ShipmentStore) restore(snap shipmentSnapshot) {
	s.Orders = snap.orders
	s.Reservations = snap.reservations
	s.Inventory = snap.inventory
	s.Transactions = snap.transactions
	s.BackOrders = snap.backOrders
	s.Packages = snap.packages
	s.History = snap.history
	s.nextID = snap.nextID
}

// WithinShipment serializes units of work, which stands in for row locks.
func (s *ShipmentStore) WithinShipment(ctx context.Context, fn func(repository.ShipmentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			s.Rollbacks++
			panic(p)
		}
	}()
	if err := fn(&memoryShipmentTx{store: s}); err != nil {
		s.restore(snap)
		s.Rollbacks++
		return err
	}
	s.Commits++
	return nil
}

// AddReservation stores an ACTIVE reservation and returns its id.
func (s *ShipmentStore) AddReservation(r model.InventoryReservation) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	if r.Status == "" {
		r.Status = model.ReservationStatusActive
	}
	s.Reservations = append(s.Reservations, r)
	return r.ID
}

// Reservation returns a reservation by id.
func (s *ShipmentStore) Reservation(id int64) (model.InventoryReservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Reservations {
		if r.ID == id {
			return r, true
		}
	}
	return model.InventoryReservation{}, false
}

// SetInventory stores a stock row.
func (s *ShipmentStore) SetInventory(inv model.Inventory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Inventory[InventoryKey{VariantID: inv.ProductVariantID, LocationID: inv.LocationID}] = inv
}

// AddBackOrder stores a back order and returns its id.
func (s *ShipmentStore) AddBackOrder(bo model.BackOrder) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	bo.ID = s.nextID
	s.BackOrders = append(s.BackOrders, bo)
	return bo.ID
}

// BackOrder returns a back order by id.
func (s *ShipmentStore) BackOrder(id int64) (model.BackOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bo := range s.BackOrders {
		if bo.ID == id {
			return bo, true
		}
	}
	return model.BackOrder{}, false
}

type memoryShipmentTx struct {
	store *ShipmentStore
}

func (t *memoryShipmentTx) LockOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	order, ok := t.store.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	order.Items = slices.Clone(order.Items)
	return &order, nil
}

func (t *memoryShipmentTx) ActiveReservations(ctx context.Context, orderID, productVariantID int64) ([]model.InventoryReservation, error) {
	var out []model.InventoryReservation
	for _, r := range t.store.Reservations {
		if r.OrderID == orderID && r.ProductVariantID == productVariantID && r.Status == model.ReservationStatusActive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *memoryShipmentTx) ReleaseReservation(ctx context.Context, release model.ReservationRelease) error {
	if t.store.ReleaseHook != nil {
		if err := t.store.ReleaseHook(release); err != nil {
			return err
		}
	}
	idx := slices.IndexFunc(t.store.Reservations, func(r model.InventoryReservation) bool {
		return r.ID == release.Reservation.ID
	})
	if idx < 0 {
		return domainErrors.ErrNotFound
	}
	res := &t.store.Reservations[idx]
	if release.Quantity <= 0 || release.Quantity > res.Quantity {
		return fmt.Errorf("invalid release of %d from reservation %d holding %d", release.Quantity, res.ID, res.Quantity)
	}

	key := InventoryKey{VariantID: res.ProductVariantID, LocationID: res.LocationID}
	inv, ok := t.store.Inventory[key]
	if !ok {
		return fmt.Errorf("no inventory row for variant %d at location %d", key.VariantID, key.LocationID)
	}
	inv.QuantityOnHand -= release.Quantity
	inv.QuantityReserved -= release.Quantity
	t.store.Inventory[key] = inv

	t.store.nextID++
	t.store.Transactions = append(t.store.Transactions, model.InventoryTransaction{
		ID:               t.store.nextID,
		ProductVariantID: res.ProductVariantID,
		LocationID:       res.LocationID,
		Type:             model.TransactionTypeSale,
		QuantityChange:   -release.Quantity,
		ReferenceID:      res.OrderID,
		ReferenceType:    model.ReferenceTypeShipment,
		UserID:           release.UserID,
		Notes:            release.Notes,
	})

	if release.Full {
		res.Status = model.ReservationStatusFulfilled
	} else {
		res.Quantity -= release.Quantity
	}
	return nil
}

func (t *memoryShipmentTx) CreatePackage(ctx context.Context, pkg *model.ShippingPackage) error {
	t.store.nextID++
	pkg.ID = t.store.nextID
	pkg.CreatedAt = time.Unix(0, 0)
	items := slices.Clone(pkg.Items)
	for i := range items {
		t.store.nextID++
		items[i].ID = t.store.nextID
		items[i].PackageID = pkg.ID
	}
	pkg.Items = items
	t.store.Packages = append(t.store.Packages, *pkg)
	return nil
}

func (t *memoryShipmentTx) ActiveBackOrders(ctx context.Context, orderID int64) ([]model.BackOrder, error) {
	var out []model.BackOrder
	for _, bo := range t.store.BackOrders {
		if bo.OrderID == orderID && slices.Contains(model.ActiveBackOrderStatuses, bo.Status) {
			out = append(out, bo)
		}
	}
	return out, nil
}

func (t *memoryShipmentTx) FulfillBackOrder(ctx context.Context, backOrderID int64, quantity int, at time.Time) error {
	for i := range t.store.BackOrders {
		bo := &t.store.BackOrders[i]
		if bo.ID == backOrderID {
			bo.Status = model.BackOrderStatusFulfilled
			bo.QuantityFulfilled = quantity
			fulfilledAt := at
			bo.FulfilledAt = &fulfilledAt
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (t *memoryShipmentTx) HasOutstandingBackOrders(ctx context.Context, orderID int64) (bool, error) {
	for _, bo := range t.store.BackOrders {
		if bo.OrderID == orderID && slices.Contains(model.OutstandingBackOrderStatuses, bo.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryShipmentTx) UpdateOrderShipment(ctx context.Context, order *model.Order) error {
	if t.store.UpdateOrderErr != nil {
		return t.store.UpdateOrderErr
	}
	if _, ok := t.store.Orders[order.ID]; !ok {
		return domainErrors.ErrNotFound
	}
	order.UpdatedAt = time.Unix(0, 0)
	t.store.Orders[order.ID] = *order
	return nil
}

func (t *memoryShipmentTx) AppendStatusHistory(ctx context.Context, change model.OrderStatusChange) error {
	t.store.History = append(t.store.History, change)
	return nil
}

var _ repository.ShipmentUnitOfWork = (*ShipmentStore)(nil)
var _ repository.ShipmentTx = (*memoryShipmentTx)(nil)
