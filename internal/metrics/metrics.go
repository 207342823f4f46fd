// Package metrics records screening activity with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Recorder receives screening events.
type Recorder interface {
	ObserveTurn(stage string)
	SessionStarted()
	SessionEnded(reason string)
	ObserveQuestions(source, errorKind string, count int, duration time.Duration)
	ObserveStore(backend, operation, status string, duration time.Duration)
}

// Nop discards everything.
type Nop struct{}

func (Nop) ObserveTurn(string) {}
func (Nop) SessionStarted() {}
func (Nop) SessionEnded(string) {}
func (Nop) ObserveQuestions(string, string, int, time.Duration) {}
func (Nop) ObserveStore(string, string, string, time.Duration) {}

// OrNop returns r, or a Nop recorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	turnsTotal        *prometheus.CounterVec
	sessionsStarted   prometheus.Counter
	sessionsEnded     *prometheus.CounterVec
	questionsTotal    *prometheus.CounterVec
	questionsDuration *prometheus.HistogramVec
	storeOpsTotal     *prometheus.CounterVec
	storeDuration     *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the screening metrics with reg. A nil reg
// uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screening_turns_total",
				Help: "Total number of handled candidate utterances by stage",
			},
			[]string{"stage"},
		),
		sessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "screening_sessions_started_total",
				Help: "Total number of started screening sessions",
			},
		),
		sessionsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screening_sessions_ended_total",
				Help: "Total number of ended screening sessions by reason",
			},
			[]string{"reason"},
		),
		questionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screening_questions_generated_total",
				Help: "Total number of generated technical questions by source and error kind",
			},
			[]string{"source", "error_kind"},
		),
		questionsDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screening_question_generation_duration_seconds",
				Help:    "Duration of technical question generation in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		storeOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screening_store_operations_total",
				Help: "Total number of session store operations by backend, operation and status",
			},
			[]string{"backend", "operation", "status"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screening_store_operation_duration_seconds",
				Help:    "Duration of session store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
	}
}

func (p *PrometheusRecorder) ObserveTurn(stage string) {
	p.turnsTotal.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) SessionStarted() {
	p.sessionsStarted.Inc()
}

func (p *PrometheusRecorder) SessionEnded(reason string) {
	p.sessionsEnded.WithLabelValues(reason).Inc()
}

// ObserveQuestions records a finished generation. errorKind is empty when the
// model answered successfully.
func (p *PrometheusRecorder) ObserveQuestions(source, errorKind string, count int, duration time.Duration) {
	p.questionsTotal.WithLabelValues(source, errorKind).Add(float64(count))
	p.questionsDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) ObserveStore(backend, operation, status string, duration time.Duration) {
	p.storeOpsTotal.WithLabelValues(backend, operation, status).Inc()
	p.storeDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}
