package usecase

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/warehouse/internal/domain/model"
)

// splitCost divides total evenly across n packages in cents. The last package absorbs
// the rounding remainder so the parts always add up to total.
func splitCost(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	parts := make([]decimal.Decimal, n)
	share := total.DivRound(decimal.NewFromInt(int64(n)), 2)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = share
		allocated = allocated.Add(share)
	}
	parts[n-1] = total.Sub(allocated)
	return parts
}

// appendList appends non-empty values to a comma-joined list.
func appendList(existing string, values ...string) string {
	parts := splitList(existing)
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ",")
}

// mergeCodes appends codes missing from existing, compared case-insensitively,
// keeping the order of first appearance.
func mergeCodes(existing string, codes ...string) string {
	parts := splitList(existing)
	seen := make(map[string]bool, len(parts)+len(codes))
	out := make([]string, 0, len(parts)+len(codes))
	for _, code := range append(parts, codes...) {
		code = strings.TrimSpace(code)
		key := strings.ToLower(code)
		if code == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, code)
	}
	return strings.Join(out, ",")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type shipmentUpdate struct {
	labels *model.LabelSet
	status model.ShippingStatus
	note   string
	at     time.Time
}

// applyShipment merges a committed shipment into the order row and returns the previous status.
func applyShipment(order *model.Order, u shipmentUpdate) model.OrderStatus {
	previous := order.Status

	order.TrackingNumber = appendList(order.TrackingNumber, u.labels.TrackingNumbers()...)
	if urls := u.labels.TrackingURLs(); len(urls) > 0 {
		order.TrackingURL = urls[0]
	}
	if order.ShippedAt == nil {
		at := u.at
		order.ShippedAt = &at
	}
	order.ShippingStatus = u.status
	order.Status = model.OrderStatus(u.status)
	order.ShippingCost = order.ShippingCost.Add(u.labels.TotalCost)
	order.ShippingCarrier = mergeCodes(order.ShippingCarrier, u.labels.CarrierCode)
	order.ShippingService = mergeCodes(order.ShippingService, u.labels.ServiceCode)
	order.LabelURL = appendList(order.LabelURL, u.labels.LabelURLs()...)
	if u.note != "" {
		if order.Notes == "" {
			order.Notes = u.note
		} else {
			order.Notes += "\n" + u.note
		}
	}
	return previous
}
