package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	IdentitiesCreated prometheus.Counter
	IdentitiesDeleted prometheus.Counter

	// Panic alerts by source: "recorded" (client composed) or "triggered"
	PanicAlerts *prometheus.CounterVec

	GeocodeLatency  *prometheus.HistogramVec
	GeocodeCacheHit *prometheus.CounterVec

	// Location samples by outcome: "resolved", "throttled", "failed"
	LocationSamples *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IdentitiesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "tourist_safety_identities_created_total",
			Help: "Total number of digital identity records created",
		}),
		IdentitiesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "tourist_safety_identities_deleted_total",
			Help: "Total number of digital identity records deleted",
		}),
		PanicAlerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tourist_safety_panic_alerts_total",
			Help: "Total panic alerts stored by source",
		}, []string{"source"}),
		GeocodeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tourist_safety_geocode_duration_seconds",
			Help:    "Duration of reverse geocoding calls by outcome",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}),
		GeocodeCacheHit: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tourist_safety_geocode_cache_total",
			Help: "Geocode cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"
		LocationSamples: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tourist_safety_location_samples_total",
			Help: "Location samples handled by the watcher by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementIdentitiesCreated increments the identities created counter by 1.
func (m *Metrics) IncrementIdentitiesCreated() {
	if m != nil {
		m.IdentitiesCreated.Inc()
	}
}

// IncrementIdentitiesDeleted increments the identities deleted counter by 1.
func (m *Metrics) IncrementIdentitiesDeleted() {
	if m != nil {
		m.IdentitiesDeleted.Inc()
	}
}

// IncrementPanicAlerts records a stored alert.
func (m *Metrics) IncrementPanicAlerts(source string) {
	if m != nil {
		m.PanicAlerts.WithLabelValues(source).Inc()
	}
}

// ObserveGeocodeLatency records one reverse geocoding call.
func (m *Metrics) ObserveGeocodeLatency(outcome string, d time.Duration) {
	if m != nil {
		m.GeocodeLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementGeocodeCache records a cache lookup.
func (m *Metrics) IncrementGeocodeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.GeocodeCacheHit.WithLabelValues(result).Inc()
}

// IncrementLocationSamples records how the watcher handled a sample.
func (m *Metrics) IncrementLocationSamples(outcome string) {
	if m != nil {
		m.LocationSamples.WithLabelValues(outcome).Inc()
	}
}
