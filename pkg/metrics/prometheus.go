package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal   *prometheus.CounterVec
	trainingsTotal *prometheus.CounterVec
	forecastsTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_provider_fetches_total",
				Help: "Total market-data provider fetches",
			},
			[]string{"source", "symbol"},
		),
		trainingsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_training_runs_total",
				Help: "Total model training runs",
			},
			[]string{"model", "result"},
		),
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_forecasts_total",
				Help: "Total forecasts served",
			},
			[]string{"model", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records a provider fetch for a symbol.
func (r *Recorder) RecordFetch(source, symbol string) {
	r.fetchesTotal.WithLabelValues(source, symbol).Inc()
}

// RecordTraining records a model training run.
func (r *Recorder) RecordTraining(model string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.trainingsTotal.WithLabelValues(model, result).Inc()
}

// RecordForecast records a forecast served for a symbol.
func (r *Recorder) RecordForecast(model, symbol string) {
	r.forecastsTotal.WithLabelValues(model, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
