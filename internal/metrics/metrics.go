// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "classifier"

// Metrics groups the service collectors on a dedicated registry.
type Metrics struct {
	Registry *prometheus.Registry

	predictions       *prometheus.CounterVec
	predictionErrors  *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	modelInfo         *prometheus.GaugeVec
}

// New creates the collectors and registers them together with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful predictions by predicted category.",
		}, []string{"category"}),
		predictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by error kind.",
		}, []string{"kind"}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Time spent normalizing, vectorizing and classifying one text.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		modelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_info",
			Help:      "Loaded model metadata; always 1.",
		}, []string{"model", "classifier_type"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.predictions,
		m.predictionErrors,
		m.inferenceDuration,
		m.httpRequests,
		m.httpDuration,
		m.modelInfo,
	)
	return m
}

// ObservePrediction records one successful prediction.
func (m *Metrics) ObservePrediction(category string, took time.Duration) {
	m.predictions.WithLabelValues(category).Inc()
	m.inferenceDuration.Observe(took.Seconds())
}

// ObservePredictionError records a failed prediction of the given kind
// (validation, vectorization, inference, panic).
func (m *Metrics) ObservePredictionError(kind string) {
	m.predictionErrors.WithLabelValues(kind).Inc()
}

// ObserveHTTP records a completed HTTP request.
func (m *Metrics) ObserveHTTP(method, path, status string, took time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(took.Seconds())
}

// SetModel publishes the loaded model name.
func (m *Metrics) SetModel(name, classifierType string) {
	m.modelInfo.Reset()
	m.modelInfo.WithLabelValues(name, classifierType).Set(1)
}
