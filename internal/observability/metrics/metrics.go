// Package metrics provides Prometheus metrics for the interview pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "talxify"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Turn metrics
	TurnsTotal  prometheus.Counter
	TurnsFailed *prometheus.CounterVec
	TurnLatency prometheus.Histogram

	// Transcript metrics
	TranscriptsPartial prometheus.Counter
	TranscriptsFinal   prometheus.Counter

	// Audio metrics
	AudioBytesReceived prometheus.Counter
	AudioBytesSent     prometheus.Counter
	AudioChunksSent    prometheus.Counter
	FramesDropped      *prometheus.CounterVec

	// Provider metrics
	SynthesisFailures prometheus.Counter
	PublishErrors     *prometheus.CounterVec
}

// Default is the process-wide metrics instance.
var Default = New()

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of interview sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently connected interview sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of interview sessions in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		TurnsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of interviewer turns completed",
		}),
		TurnsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_failed_total",
			Help:      "Total number of interviewer turns that failed",
		}, []string{"stage"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_seconds",
			Help:      "Time from final transcript to end of reply streaming",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
		}),
		TranscriptsPartial: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_partial_total",
			Help:      "Total number of partial transcripts relayed",
		}),
		TranscriptsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Total number of final transcripts received",
		}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total candidate audio bytes received",
		}),
		AudioBytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_sent_total",
			Help:      "Total synthesized audio bytes sent",
		}),
		AudioChunksSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_sent_total",
			Help:      "Total synthesized audio chunks sent",
		}),
		FramesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Total inbound frames dropped",
		}, []string{"reason"}),
		SynthesisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_failures_total",
			Help:      "Total speech synthesis failures (turn degraded to text-only)",
		}),
		PublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total event publish errors",
		}, []string{"topic"}),
	}
}

// RecordSessionStart records a new gateway session.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a gateway session closing.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordTurn records a completed interviewer turn.
func (m *Metrics) RecordTurn(latencySeconds float64) {
	m.TurnsTotal.Inc()
	m.TurnLatency.Observe(latencySeconds)
}

// RecordTurnFailed records a failed turn by pipeline stage.
func (m *Metrics) RecordTurnFailed(stage string) {
	m.TurnsFailed.WithLabelValues(stage).Inc()
}

// RecordTranscript records a relayed transcript fragment.
func (m *Metrics) RecordTranscript(isFinal bool) {
	if isFinal {
		m.TranscriptsFinal.Inc()
	} else {
		m.TranscriptsPartial.Inc()
	}
}

// RecordAudioReceived records candidate audio arriving at the gateway.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordAudioSent records one synthesized chunk leaving the gateway.
func (m *Metrics) RecordAudioSent(bytes int) {
	m.AudioBytesSent.Add(float64(bytes))
	m.AudioChunksSent.Inc()
}

// RecordFrameDropped records an inbound frame dropped by the state guard.
func (m *Metrics) RecordFrameDropped(reason string) {
	m.FramesDropped.WithLabelValues(reason).Inc()
}

// RecordSynthesisFailure records a text-only degraded turn.
func (m *Metrics) RecordSynthesisFailure() {
	m.SynthesisFailures.Inc()
}

// RecordPublishError records a failed event publish.
func (m *Metrics) RecordPublishError(topic string) {
	m.PublishErrors.WithLabelValues(topic).Inc()
}
