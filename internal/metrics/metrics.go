// Package metrics exposes Prometheus instrumentation for the turn pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coach_sessions_active",
		Help: "Currently open WebSocket sessions",
	})

	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coach_turns_total",
		Help: "Total completed turns (final transcript committed)",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coach_stage_duration_seconds",
		Help:    "Per-stage latency within a turn",
		Buckets: []float64{0.02, 0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0},
	}, []string{"stage"})

	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coach_turn_duration_seconds",
		Help:    "End-to-end latency from utterance close to coach event emitted",
		Buckets: []float64{0.2, 0.5, 0.8, 1.0, 1.2, 1.5, 2.0, 3.0, 5.0},
	})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coach_errors_total",
		Help: "Error counts by stage and kind",
	}, []string{"stage", "kind"})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coach_frame_ring_drops_total",
		Help: "PCM frames dropped by the frame ring on overflow",
	})

	UtterancesSegmented = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coach_vad_utterances_total",
		Help: "Utterances closed by the VAD segmenter",
	})

	UtterancesTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coach_vad_truncated_total",
		Help: "Utterances force-closed at max_utt_ms",
	})

	ASRNoSpeechProb = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coach_asr_no_speech_prob",
		Help:    "no_speech_prob per successful ASR decode (partial, final, or warm-up)",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	PartialsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coach_asr_partials_coalesced_total",
		Help: "Partial decode ticks dropped because a decode was already in flight",
	})

	CorrectionsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coach_corrections_total",
		Help: "Grammar corrections emitted by type",
	}, []string{"type", "severity"})

	BackpressureCloses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coach_backpressure_closes_total",
		Help: "Sessions closed due to outbound backpressure overflow",
	})
)
