package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics holds Prometheus metrics for order mutations.
type OrderMetrics struct {
	Created       prometheus.Counter
	StatusUpdates *prometheus.CounterVec
}

// NewOrderMetrics creates and registers order metrics on the given registry.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		Created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders created.",
		}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_updates_total",
			Help:      "Total number of status updates, by new status.",
		}, []string{"status"}),
	}

	reg.MustRegister(m.Created, m.StatusUpdates)
	return m
}
