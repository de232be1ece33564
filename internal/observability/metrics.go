// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Assistant metrics
	QuestionsTotal  *prometheus.CounterVec
	Detections      *prometheus.CounterVec
	Classifications *prometheus.CounterVec
	Intents         *prometheus.CounterVec
	AnswerDuration  prometheus.Histogram

	// Market metrics
	MarketFetches      *prometheus.CounterVec
	MarketFetchLatency prometheus.Histogram

	// Language model metrics
	LLMCalls   *prometheus.CounterVec
	LLMLatency prometheus.Histogram

	// Storage metrics
	InteractionStoreErrors prometheus.Counter

	// API metrics
	HTTPRequestDuration *prometheus.HistogramVec
	WSConnections       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "croak_assistant"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QuestionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "questions_total",
			Help:      "Total number of questions answered by answer source",
		}, []string{"source"}),
		Detections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "detections_total",
			Help:      "Total number of token detections by rule",
		}, []string{"rule"}),
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "classifications_total",
			Help:      "Total number of classified questions by category",
		}, []string{"category"}),
		Intents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "intents_total",
			Help:      "Total number of classified questions by intent",
		}, []string{"intent"}),
		AnswerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "answer_duration_seconds",
			Help:      "Time to answer a question in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		MarketFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetches_total",
			Help:      "Total number of market figure fetches by source and status",
		}, []string{"source", "status"}),
		MarketFetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetch_latency_seconds",
			Help:      "Market figure fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		LLMCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of language model calls by status",
		}, []string{"status"}),
		LLMLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_latency_seconds",
			Help:      "Language model call latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),

		InteractionStoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "interaction_store_errors_total",
			Help:      "Total number of failed interaction inserts",
		}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "websocket_connections",
			Help:      "Number of open chat WebSocket connections",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordQuestion records one answered question.
func (m *Metrics) RecordQuestion(rule, category, intent, source string, d time.Duration) {
	m.Detections.WithLabelValues(rule).Inc()
	m.Classifications.WithLabelValues(category).Inc()
	m.Intents.WithLabelValues(intent).Inc()
	m.QuestionsTotal.WithLabelValues(source).Inc()
	m.AnswerDuration.Observe(d.Seconds())
}

// RecordMarketFetch records a market fetch outcome.
func (m *Metrics) RecordMarketFetch(source string, err error, d time.Duration) {
	m.MarketFetches.WithLabelValues(source, status(err)).Inc()
	m.MarketFetchLatency.Observe(d.Seconds())
}

// RecordLLMCall records a language model call.
func (m *Metrics) RecordLLMCall(err error, d time.Duration) {
	m.LLMCalls.WithLabelValues(status(err)).Inc()
	m.LLMLatency.Observe(d.Seconds())
}

// RecordInteractionStoreError counts a failed interaction insert.
func (m *Metrics) RecordInteractionStoreError() {
	m.InteractionStoreErrors.Inc()
}

// RecordHTTPRequest records an API request.
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, statusCode).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
