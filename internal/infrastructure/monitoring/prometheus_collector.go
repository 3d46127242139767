package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exposes the signaling plane's metrics. A nil
// collector is valid and records nothing, which keeps tests free of the
// global prometheus registry.
type PrometheusCollector struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	usersRegistered   prometheus.Gauge
	roomsActive       prometheus.Gauge

	relayRoutedTotal  *prometheus.CounterVec
	relayDroppedTotal *prometheus.CounterVec
	chatMessagesTotal prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pairlink_connections_active",
			Help: "Number of currently open WebSocket connections",
		}),

		connectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairlink_connections_total",
			Help: "Total number of accepted WebSocket connections",
		}),

		usersRegistered: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pairlink_users_registered",
			Help: "Number of currently registered usernames",
		}),

		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pairlink_rooms_active",
			Help: "Number of live rooms",
		}),

		relayRoutedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairlink_relay_routed_total",
			Help: "Relay events forwarded to their paired peer",
		}, []string{"event"}),

		relayDroppedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairlink_relay_dropped_total",
			Help: "Relay events dropped for unknown or mismatched pairings",
		}, []string{"event"}),

		chatMessagesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairlink_chat_messages_total",
			Help: "Chat messages accepted into the transient log",
		}),
	}
}

func (c *PrometheusCollector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Inc()
	c.connectionsTotal.Inc()
}

func (c *PrometheusCollector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Dec()
}

func (c *PrometheusCollector) SetUsersRegistered(n int) {
	if c == nil {
		return
	}
	c.usersRegistered.Set(float64(n))
}

func (c *PrometheusCollector) SetRoomsActive(n int) {
	if c == nil {
		return
	}
	c.roomsActive.Set(float64(n))
}

func (c *PrometheusCollector) RelayRouted(event string) {
	if c == nil {
		return
	}
	c.relayRoutedTotal.WithLabelValues(event).Inc()
}

func (c *PrometheusCollector) RelayDropped(event string) {
	if c == nil {
		return
	}
	c.relayDroppedTotal.WithLabelValues(event).Inc()
}

func (c *PrometheusCollector) ChatMessage() {
	if c == nil {
		return
	}
	c.chatMessagesTotal.Inc()
}
