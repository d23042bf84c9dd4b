package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the service counters behind a private registry.
type Metrics struct {
	registry *prometheus.Registry

	LabelRequests         *prometheus.CounterVec
	ShipmentsCompleted    *prometheus.CounterVec
	ReservationShortfalls *prometheus.CounterVec
	SideEffectFailures    *prometheus.CounterVec
	SyncRetries           *prometheus.CounterVec
}

// New registers service counters plus Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LabelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warehouse_label_requests_total",
			Help: "Carrier label API calls by carrier and outcome.",
		}, []string{"carrier", "outcome"}),
		ShipmentsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warehouse_shipments_completed_total",
			Help: "Committed shipments by resulting shipping status.",
		}, []string{"status"}),
		ReservationShortfalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warehouse_reservation_shortfalls_total",
			Help: "Reservation shortfalls detected during release, by mode.",
		}, []string{"mode"}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warehouse_side_effect_failures_total",
			Help: "Post-commit side effects that failed, by effect name.",
		}, []string{"effect"}),
		SyncRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warehouse_fulfillment_sync_retries_total",
			Help: "Pending fulfillment sync retry attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LabelRequests,
		m.ShipmentsCompleted,
		m.ReservationShortfalls,
		m.SideEffectFailures,
		m.SyncRetries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
