// Package metrics exposes orchestrator outcomes as Prometheus metrics.
package metrics

import (
	authclient "github.com/goliatone/go-auth-client"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "authclient"

// Collector implements authclient.Metrics.
type Collector struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Authenticated     prometheus.Gauge
}

// NewCollector creates the metrics and registers them with registerer. A
// nil registerer skips registration.
func NewCollector(registerer prometheus.Registerer, namespace string) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &Collector{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of auth operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Auth operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Authenticated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "authenticated",
				Help:      "1 while a session token is attached",
			},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			c.OperationsTotal,
			c.OperationDuration,
			c.Authenticated,
		)
	}

	return c
}

// ObserveOperation implements authclient.Metrics.
func (c *Collector) ObserveOperation(op authclient.Operation, outcome string, elapsed float64) {
	c.OperationsTotal.WithLabelValues(string(op), outcome).Inc()
	c.OperationDuration.WithLabelValues(string(op)).Observe(elapsed)
}

// SetAuthenticated implements authclient.Metrics.
func (c *Collector) SetAuthenticated(authenticated bool) {
	if authenticated {
		c.Authenticated.Set(1)
		return
	}
	c.Authenticated.Set(0)
}
