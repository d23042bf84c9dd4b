package test

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

// QueueStub records enqueued jobs; the Err fields make the matching call fail.
type QueueStub struct {
	PackingSlipErr  error
	FulfillmentErr  error
	NotificationErr error
	FulfillmentFn   func(context.Context, model.FulfillmentSyncJob) error

	mu            sync.Mutex
	PackingSlips  []model.PackingSlipJob
	Fulfillments  []model.FulfillmentSyncJob
	Notifications []model.ShipmentNotificationJob
}

func (q *QueueStub) EnqueuePackingSlip(ctx context.Context, job model.PackingSlipJob) error {
	if q.PackingSlipErr != nil {
		return q.PackingSlipErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.PackingSlips = append(q.PackingSlips, job)
	return nil
}

func (q *QueueStub) EnqueueFulfillmentSync(ctx context.Context, job model.FulfillmentSyncJob) error {
	if q.FulfillmentFn != nil {
		if err := q.FulfillmentFn(ctx, job); err != nil {
			return err
		}
	} else if q.FulfillmentErr != nil {
		return q.FulfillmentErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Fulfillments = append(q.Fulfillments, job)
	return nil
}

func (q *QueueStub) EnqueueShipmentNotification(ctx context.Context, job model.ShipmentNotificationJob) error {
	if q.NotificationErr != nil {
		return q.NotificationErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Notifications = append(q.Notifications, job)
	return nil
}

// FulfillmentCount is safe to call while workers are running.
func (q *QueueStub) FulfillmentCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Fulfillments)
}

// LabelPurchaserStub stands in for the carrier coordinator.
type LabelPurchaserStub struct {
	ValidateFn func(string, string) error
	PurchaseFn func(context.Context, model.LabelRequest) (*model.LabelSet, error)

	mu       sync.Mutex
	Requests []model.LabelRequest
}

func (s *LabelPurchaserStub) Validate(carrierCode, serviceCode string) error {
	if s.ValidateFn != nil {
		return s.ValidateFn(carrierCode, serviceCode)
	}
	return nil
}

// Purchase records the request; by default each package gets a label costing 5.00.
func (s *LabelPurchaserStub) Purchase(ctx context.Context, req model.LabelRequest) (*model.LabelSet, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	s.mu.Unlock()
	if s.PurchaseFn != nil {
		return s.PurchaseFn(ctx, req)
	}
	set := &model.LabelSet{CarrierCode: req.CarrierCode, ServiceCode: req.ServiceCode, Currency: "usd"}
	for i := range req.Packages {
		set.Packages = append(set.Packages, model.LabelPackage{
			Index:          i,
			TrackingNumber: "TRK" + string(rune('A'+i)),
			LabelURL:       "https://labels.example/" + string(rune('a'+i)) + ".pdf",
			TrackingURL:    "https://track.example/" + string(rune('a'+i)),
		})
	}
	set.TotalCost = decimal.NewFromInt(int64(5 * len(req.Packages)))
	return set, nil
}

// Calls returns how many purchases were attempted.
func (s *LabelPurchaserStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
