package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tasksmate_ws_connections",
		Help: "Live WebSocket connections currently tracked by the hub.",
	})

	ChatRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasksmate_chat_messages_relayed_total",
		Help: "Chat messages validated, persisted and fanned out.",
	})

	ChatRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasksmate_chat_messages_rejected_total",
		Help: "Chat messages rejected during validation or authorization.",
	})

	EventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasksmate_ws_events_delivered_total",
		Help: "Events written to individual client connections.",
	})

	ConnectionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasksmate_ws_connections_swept_total",
		Help: "Connections terminated by the liveness sweep.",
	})
)
