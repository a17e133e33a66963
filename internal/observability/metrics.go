package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "saferoute"

// Metrics holds the Prometheus collectors for route and hazard processing.
type Metrics struct {
	RouteRequests    *prometheus.CounterVec // labels: cache={hit,miss,anonymous}
	RoutingFallbacks *prometheus.CounterVec // labels: reason={error,empty}
	RouteRiskScore   prometheus.Histogram

	HazardsDetected  *prometheus.CounterVec // labels: type
	WeatherFallbacks prometheus.Counter

	ProviderDuration *prometheus.HistogramVec // labels: provider
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RouteRequests,
		m.RoutingFallbacks,
		m.RouteRiskScore,
		m.HazardsDetected,
		m.WeatherFallbacks,
		m.ProviderDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "Route calculations by cache outcome.",
		}, []string{"cache"}),
		RoutingFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_fallbacks_total",
			Help:      "Routes that fell back to a straight-line path, by reason.",
		}, []string{"reason"}),
		RouteRiskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_risk_score",
			Help:      "Risk score of freshly computed routes.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		HazardsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_detected_total",
			Help:      "Hazards produced by location analysis, by type.",
		}, []string{"type"}),
		WeatherFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fallbacks_total",
			Help:      "Analyses that used the neutral weather snapshot.",
		}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
	}
}
