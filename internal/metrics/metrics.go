package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the client core.
// All record methods are safe on a nil *Metrics.
type Metrics struct {
	// API client
	APIRequests *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec

	// Real-time channel
	ChannelConnects    prometheus.Counter
	ChannelDisconnects prometheus.Counter
	RoomJoins          prometheus.Counter
	ChannelEvents      *prometheus.CounterVec

	// Feature gating
	AccessChecks *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirelink_api_requests_total",
				Help: "Total number of backend API requests by method and status",
			},
			[]string{"method", "status"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hirelink_api_request_duration_seconds",
				Help:    "Backend API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),

		ChannelConnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "hirelink_channel_connects_total",
			Help: "Number of times the real-time channel reported a connection",
		}),
		ChannelDisconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "hirelink_channel_disconnects_total",
			Help: "Number of times the real-time channel reported a disconnection",
		}),
		RoomJoins: factory.NewCounter(prometheus.CounterOpts{
			Name: "hirelink_channel_room_joins_total",
			Help: "Number of room join requests emitted",
		}),
		ChannelEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirelink_channel_events_total",
				Help: "Push events received, by kind",
			},
			[]string{"kind"},
		),

		AccessChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hirelink_access_checks_total",
				Help: "Feature access evaluations, by feature and outcome",
			},
			[]string{"feature", "allowed"},
		),
	}
}

// ObserveRequest records one API request. status 0 means the request never
// reached the server.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.APIRequests.WithLabelValues(method, label).Inc()
	m.APIDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ChannelConnected records a transport connect
func (m *Metrics) ChannelConnected() {
	if m == nil {
		return
	}
	m.ChannelConnects.Inc()
}

// ChannelDisconnected records a transport disconnect
func (m *Metrics) ChannelDisconnected() {
	if m == nil {
		return
	}
	m.ChannelDisconnects.Inc()
}

// RoomJoined records an emitted room join
func (m *Metrics) RoomJoined() {
	if m == nil {
		return
	}
	m.RoomJoins.Inc()
}

// EventReceived records a dispatched push event
func (m *Metrics) EventReceived(kind string) {
	if m == nil {
		return
	}
	m.ChannelEvents.WithLabelValues(kind).Inc()
}

// AccessChecked records one feature access decision
func (m *Metrics) AccessChecked(feature string, allowed bool) {
	if m == nil {
		return
	}
	m.AccessChecks.WithLabelValues(feature, strconv.FormatBool(allowed)).Inc()
}
