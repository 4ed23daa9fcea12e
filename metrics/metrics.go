// Package metrics provides Prometheus instrumentation for quivc
// connections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quivc/quivc/internal/protocol"
)

const metricNamespace = "quivc"

var (
	connStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "connections_started_total",
			Help:      "Connections Started",
		},
		[]string{"dir"},
	)
	connClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "connections_closed_total",
			Help:      "Connections Closed",
		},
		[]string{"dir", "reason"},
	)
	connHandshakeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Name:      "handshake_duration_seconds",
			Help:      "Duration of the QUIC Handshake",
			Buckets:   prometheus.ExponentialBuckets(0.001, 1.3, 35),
		},
		[]string{"dir"},
	)
	packetsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "packets_sent_total",
			Help:      "Packets Sent",
		},
	)
	packetsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "packets_received_total",
			Help:      "Packets Received",
		},
	)
	packetsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "packets_dropped_total",
			Help:      "Packets Dropped",
		},
		[]string{"reason"},
	)
)

// A Recorder records connection metrics into Prometheus.
type Recorder struct{}

// NewRecorder creates a Recorder registered with the default Prometheus
// registerer.
func NewRecorder() *Recorder {
	return NewRecorderWithRegisterer(prometheus.DefaultRegisterer)
}

// NewRecorderWithRegisterer creates a Recorder using a given Prometheus
// registerer. It should be reused across connections.
func NewRecorderWithRegisterer(registerer prometheus.Registerer) *Recorder {
	for _, c := range [...]prometheus.Collector{
		connStarted, connClosed, connHandshakeDuration,
		packetsSent, packetsReceived, packetsDropped,
	} {
		if err := registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
	return &Recorder{}
}

func direction(p protocol.Perspective) string {
	if p == protocol.PerspectiveClient {
		return "outgoing"
	}
	return "incoming"
}

// ConnectionStarted counts a new connection.
func (r *Recorder) ConnectionStarted(p protocol.Perspective) {
	connStarted.WithLabelValues(direction(p)).Inc()
}

// ConnectionClosed counts a closed connection.
func (r *Recorder) ConnectionClosed(p protocol.Perspective, reason string) {
	connClosed.WithLabelValues(direction(p), reason).Inc()
}

// HandshakeCompleted observes the handshake duration.
func (r *Recorder) HandshakeCompleted(p protocol.Perspective, d time.Duration) {
	connHandshakeDuration.WithLabelValues(direction(p)).Observe(d.Seconds())
}

// PacketSent counts an outgoing packet.
func (r *Recorder) PacketSent(protocol.ByteCount) { packetsSent.Inc() }

// PacketReceived counts an incoming packet.
func (r *Recorder) PacketReceived(protocol.ByteCount) { packetsReceived.Inc() }

// PacketDropped counts a dropped packet.
func (r *Recorder) PacketDropped(reason string) {
	packetsDropped.WithLabelValues(reason).Inc()
}
