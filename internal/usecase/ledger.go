package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	domainErrors "github.com/polkiloo/warehouse/internal/domain/errors"
	"github.com/polkiloo/warehouse/internal/domain/model"
	"github.com/polkiloo/warehouse/internal/domain/repository"
	"github.com/polkiloo/warehouse/internal/metrics"
)

// ReleaseMode decides what happens when reservations do not cover a release.
type ReleaseMode string

const (
	// ReleaseStrict fails the shipment on any shortfall.
	ReleaseStrict ReleaseMode = "strict"
	// ReleaseTolerant releases whatever is reserved and logs a short pick.
	ReleaseTolerant ReleaseMode = "tolerant"
)

// ReleaseRequest lists the quantity to release per product variant of one order.
type ReleaseRequest struct {
	OrderID int64
	UserID  int64
	Needed  map[int64]int
	SKUs    map[int64]string
	Mode    ReleaseMode
	Notes   string
}

// ReservationLedger converts shipped quantities into reservation releases.
type ReservationLedger struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewReservationLedger constructs ReservationLedger.
func NewReservationLedger(m *metrics.Metrics, logger *slog.Logger) *ReservationLedger {
	return &ReservationLedger{metrics: m, logger: logger}
}

// Release drains ACTIVE reservations newest first for every variant in req.
// Variants are visited in ascending id order so concurrent shipments lock rows in the same order.
func (l *ReservationLedger) Release(ctx context.Context, tx repository.ShipmentTx, req ReleaseRequest) ([]model.ReleaseSummary, error) {
	variants := make([]int64, 0, len(req.Needed))
	for variantID, qty := range req.Needed {
		if qty > 0 {
			variants = append(variants, variantID)
		}
	}
	slices.Sort(variants)

	summaries := make([]model.ReleaseSummary, 0, len(variants))
	for _, variantID := range variants {
		needed := req.Needed[variantID]
		reservations, err := tx.ActiveReservations(ctx, req.OrderID, variantID)
		if err != nil {
			return nil, fmt.Errorf("load reservations for variant %d: %w", variantID, err)
		}

		releases, released := planReleases(reservations, needed)
		if released < needed {
			shortfall := &domainErrors.ShortfallError{
				ProductVariantID: variantID,
				SKU:              req.SKUs[variantID],
				Needed:           needed,
				Available:        released,
			}
			l.observeShortfall(req.Mode)
			if req.Mode != ReleaseTolerant {
				return nil, shortfall
			}
			l.logger.Warn("short pick, releasing available reservations",
				slog.Int64("order_id", req.OrderID),
				slog.Int64("variant_id", variantID),
				slog.Int("needed", needed),
				slog.Int("reserved", released),
			)
		}

		for _, release := range releases {
			release.UserID = req.UserID
			release.Notes = req.Notes
			if err := tx.ReleaseReservation(ctx, release); err != nil {
				return nil, fmt.Errorf("release reservation %d: %w", release.Reservation.ID, err)
			}
		}
		if released > 0 {
			summaries = append(summaries, model.ReleaseSummary{
				ProductVariantID: variantID,
				SKU:              req.SKUs[variantID],
				Quantity:         released,
			})
		}
	}
	return summaries, nil
}

// planReleases walks reservations in the given order, consuming greedily until needed is met.
func planReleases(reservations []model.InventoryReservation, needed int) ([]model.ReservationRelease, int) {
	var releases []model.ReservationRelease
	remaining := needed
	for _, reservation := range reservations {
		if remaining == 0 {
			break
		}
		if reservation.Quantity <= 0 {
			continue
		}
		take := min(remaining, reservation.Quantity)
		releases = append(releases, model.ReservationRelease{
			Reservation: reservation,
			Quantity:    take,
			Full:        take == reservation.Quantity,
		})
		remaining -= take
	}
	return releases, needed - remaining
}

func (l *ReservationLedger) observeShortfall(mode ReleaseMode) {
	if l.metrics == nil {
		return
	}
	l.metrics.ReservationShortfalls.WithLabelValues(string(mode)).Inc()
}
