package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions       prometheus.Gauge
	ConnectedClients     prometheus.Gauge
	MessagesTotal        *prometheus.CounterVec
	UpdatesTotal         *prometheus.CounterVec
	DroppedMessagesTotal *prometheus.CounterVec
	SnapshotPushesTotal  prometheus.Counter
	AckErrorsTotal       prometheus.Counter
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "multigalaxy",
			Name:      "active_sessions",
			Help:      "Number of sessions with at least one participant",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "multigalaxy",
			Name:      "connected_clients",
			Help:      "Number of open websocket connections",
		}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multigalaxy",
			Name:      "messages_total",
			Help:      "Total inbound event messages by event name",
		}, []string{"event"}),
		UpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multigalaxy",
			Name:      "canvas_updates_total",
			Help:      "Total canvas updates fanned out by update type",
		}, []string{"type"}),
		DroppedMessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multigalaxy",
			Name:      "dropped_messages_total",
			Help:      "Total messages dropped by reason",
		}, []string{"reason"}),
		SnapshotPushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "multigalaxy",
			Name:      "snapshot_pushes_total",
			Help:      "Total session_state snapshots pushed",
		}),
		AckErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "multigalaxy",
			Name:      "ack_errors_total",
			Help:      "Total error acknowledgments returned to clients",
		}),
	}
	r.MustRegister(m.ActiveSessions, m.ConnectedClients, m.MessagesTotal, m.UpdatesTotal, m.DroppedMessagesTotal, m.SnapshotPushesTotal, m.AckErrorsTotal)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
