// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Stream metrics
	FramesReceived  *prometheus.CounterVec
	ProbesAcked     prometheus.Counter
	RecordsSkipped  *prometheus.CounterVec
	FrameErrors     prometheus.Counter
	HighestSlotSeen prometheus.Gauge

	// Detection metrics
	SwapsDetected *prometheus.CounterVec

	// Session metrics
	SessionState        prometheus.Gauge
	SessionTerminations *prometheus.CounterVec
	SessionRestarts     prometheus.Counter

	// Sink metrics
	SinkErrors  *prometheus.CounterVec
	SinkDropped *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pool_monitor"
	}
	factory := promauto.With(reg)

	return &Metrics{
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_received_total",
			Help:      "Total number of frames received by kind",
		}, []string{"kind"}),
		ProbesAcked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "probes_acked_total",
			Help:      "Total number of keepalive probes acknowledged",
		}),
		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "records_skipped_total",
			Help:      "Total number of records skipped by reason",
		}, []string{"reason"}),
		FrameErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frame_processing_errors_total",
			Help:      "Total number of frames that failed processing",
		}),
		HighestSlotSeen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "highest_slot_seen",
			Help:      "Highest Solana slot number seen",
		}),

		SwapsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "swaps_detected_total",
			Help:      "Total number of swaps detected by source",
		}, []string{"source"}),

		SessionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "Current session state (0=disconnected, 1=connecting, 2=subscribed, 3=terminated)",
		}),
		SessionTerminations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "terminations_total",
			Help:      "Total number of session terminations by cause",
		}, []string{"cause"}),
		SessionRestarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "restarts_total",
			Help:      "Total number of session restarts",
		}),

		SinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Total number of sink delivery errors by sink",
		}, []string{"sink"}),
		SinkDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "dropped_total",
			Help:      "Total number of events dropped on a full sink buffer",
		}, []string{"sink"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordFrame increments the frames counter for a frame kind.
func RecordFrame(kind string) {
	DefaultMetrics.FramesReceived.WithLabelValues(kind).Inc()
}

// RecordProbeAcked increments the probes acknowledged counter.
func RecordProbeAcked() {
	DefaultMetrics.ProbesAcked.Inc()
}

// RecordSkipped records a record that produced no event.
func RecordSkipped(reason string) {
	DefaultMetrics.RecordsSkipped.WithLabelValues(reason).Inc()
}

// RecordFrameError increments the frame processing errors counter.
func RecordFrameError() {
	DefaultMetrics.FrameErrors.Inc()
}

// UpdateHighestSlot updates the highest slot seen gauge.
func UpdateHighestSlot(slot uint64) {
	DefaultMetrics.HighestSlotSeen.Set(float64(slot))
}

// RecordSwap increments the swaps detected counter.
func RecordSwap(source string) {
	DefaultMetrics.SwapsDetected.WithLabelValues(source).Inc()
}

// SetSessionState updates the session state gauge.
func SetSessionState(state int) {
	DefaultMetrics.SessionState.Set(float64(state))
}

// RecordTermination records a session termination.
func RecordTermination(cause string) {
	DefaultMetrics.SessionTerminations.WithLabelValues(cause).Inc()
}

// RecordRestart increments the session restarts counter.
func RecordRestart() {
	DefaultMetrics.SessionRestarts.Inc()
}

// RecordSinkError records a sink delivery error.
func RecordSinkError(sink string) {
	DefaultMetrics.SinkErrors.WithLabelValues(sink).Inc()
}

// RecordSinkDropped records an event dropped by a sink buffer.
func RecordSinkDropped(sink string) {
	DefaultMetrics.SinkDropped.WithLabelValues(sink).Inc()
}
