package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	applogger "StockCast/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpStats holds the request-level Prometheus collectors. They register
// once per process no matter how many servers are built.
type httpStats struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

var (
	statsOnce sync.Once
	stats     *httpStats
)

func loadStats() *httpStats {
	statsOnce.Do(func() {
		stats = &httpStats{
			requests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "stockcast_http_requests_total",
				Help: "HTTP requests served",
			}, []string{"route", "method", "status"}),
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "stockcast_http_request_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"route", "method", "status"}),
			inFlight: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "stockcast_http_in_flight_requests",
				Help: "Current in-flight HTTP requests",
			}, []string{"route", "method"}),
		}
	})
	return stats
}

// Metrics records per-request Prometheus metrics, and logs 5xx responses
// and requests slower than slowThreshold through the structured logger.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) func(http.Handler) http.Handler {
	s := loadStats()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := r.URL.Path
			method := r.Method

			s.inFlight.WithLabelValues(route, method).Inc()
			start := time.Now()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			status := strconv.Itoa(sw.status)
			s.requests.WithLabelValues(route, method, status).Inc()
			s.duration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
			s.inFlight.WithLabelValues(route, method).Dec()

			if l == nil {
				return
			}
			if sw.status >= http.StatusInternalServerError {
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.String("status", status),
					applogger.Duration("duration_ms", elapsed),
					applogger.Int("bytes", sw.written),
				)
				return
			}
			if slowThreshold > 0 && elapsed >= slowThreshold {
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.String("status", status),
					applogger.Duration("duration_ms", elapsed),
					applogger.Int("bytes", sw.written),
				)
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}
