package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for viewer connections and fan-out.
type WebSocketMetrics struct {
	ActiveConnections     prometheus.Gauge
	MessagesPublished     *prometheus.CounterVec
	EnvelopesDelivered    prometheus.Counter
	DeliveryFailures      prometheus.Counter
	ConnectionsPruned     prometheus.Counter
	SerializationFailures prometheus.Counter
	ConnectionsRejected   *prometheus.CounterVec
	BroadcastDuration     prometheus.Histogram
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of viewer connections in the registry.",
		}),
		MessagesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_published_total",
			Help:      "Total number of envelopes handed to the broadcaster, by event type.",
		}, []string{"type"}),
		EnvelopesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "envelopes_delivered_total",
			Help:      "Total number of successful per-connection sends.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "delivery_failures_total",
			Help:      "Total number of failed per-connection sends.",
		}),
		ConnectionsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_pruned_total",
			Help:      "Total number of connections removed after a failed send.",
		}),
		SerializationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "serialization_failures_total",
			Help:      "Total number of envelopes that could not be encoded.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_rejected_total",
			Help:      "Total number of viewer connections rejected by connection limits.",
		}, []string{"reason"}),
		BroadcastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Duration of one fan-out round in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.MessagesPublished,
		m.EnvelopesDelivered,
		m.DeliveryFailures,
		m.ConnectionsPruned,
		m.SerializationFailures,
		m.ConnectionsRejected,
		m.BroadcastDuration,
	)
	return m
}
