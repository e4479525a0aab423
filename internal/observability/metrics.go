package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	roomReservationsTotal   *prometheus.CounterVec
	enforcementFiringsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the occupancy
// engine and its HTTP surface.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asrama_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asrama_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asrama_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		roomReservationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asrama_room_reservations_total",
			Help: "Room slot reservation attempts by operation and outcome.",
		}, []string{"operation", "outcome"})

		enforcementFiringsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asrama_enforcement_firings_total",
			Help: "Number of automatic enforcement cascades applied.",
		})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, roomReservationsTotal, enforcementFiringsTotal)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// RoomReservations exposes the reservation attempt counter.
func RoomReservations() *prometheus.CounterVec {
	RegisterMetrics()
	return roomReservationsTotal
}

// EnforcementFirings exposes the enforcement cascade counter.
func EnforcementFirings() prometheus.Counter {
	RegisterMetrics()
	return enforcementFiringsTotal
}
