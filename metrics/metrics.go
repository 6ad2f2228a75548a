// Package metrics implements the dispatch engine's metrics interface on top
// of Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proxymap"

// Prometheus collects the dispatch engine's observability signals in its own
// Prometheus registry. It implements routing.Metrics.
type Prometheus struct {
	registry *prometheus.Registry

	rebuilds      prometheus.Counter
	failures      prometheus.Counter
	invalidRoutes *prometheus.CounterVec
	routes        prometheus.Gauge
}

// NewPrometheus creates the collectors in a fresh registry.
func NewPrometheus() *Prometheus {
	r := prometheus.NewRegistry()
	f := promauto.With(r)

	return &Prometheus{
		registry: r,
		rebuilds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_table_rebuilds_total",
			Help:      "Number of successfully published route table generations.",
		}),
		failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_table_failures_total",
			Help:      "Number of route table rebuilds aborted by a route source failure.",
		}),
		invalidRoutes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_routes_total",
			Help:      "Number of route definitions skipped during rebuilds.",
		}, []string{"reason"}),
		routes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of routes in the published table generation.",
		}),
	}
}

func (m *Prometheus) IncRouteTableRebuild() { m.rebuilds.Inc() }
func (m *Prometheus) IncRouteTableFailure() { m.failures.Inc() }

func (m *Prometheus) IncInvalidRoute(_, reason string) {
	m.invalidRoutes.WithLabelValues(reason).Inc()
}

func (m *Prometheus) UpdateRouteCount(n int) { m.routes.Set(float64(n)) }

// Handler exposes the registry in the Prometheus text format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
